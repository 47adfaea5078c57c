// Package service provides the controller layer: it owns the list adapter,
// drives the account web service and turns view intents into remote calls.
package service

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/boddenberg/comptes-soap-go/internal/adapter"
	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"
	"github.com/boddenberg/comptes-soap-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("service/comptes")

// ComptesService is the single owner of a CompteAdapter. Every adapter access
// goes through mu, so callers on different goroutines see one update at a time.
type ComptesService struct {
	remote  port.CompteRemote
	metrics *observability.Metrics
	logger  *zap.Logger

	refreshes singleflight.Group

	mu      sync.Mutex
	adapter *adapter.CompteAdapter
	intent  intentResult
}

// intentResult carries what the adapter handlers did for the intent being
// fired. Only valid while mu is held.
type intentResult struct {
	deleting *domain.Compte
	edited   *domain.Compte
}

// NewComptesService creates the controller. view receives the adapter's
// change notifications and may be nil.
func NewComptesService(remote port.CompteRemote, view adapter.Notifier, metrics *observability.Metrics, logger *zap.Logger) *ComptesService {
	s := &ComptesService{
		remote:  remote,
		metrics: metrics,
		logger:  logger,
		adapter: adapter.New(view),
	}
	s.adapter.OnDeleteRequested = s.onDeleteRequested
	s.adapter.OnEditRequested = s.onEditRequested
	return s
}

// Refresh reloads the list from the web service. Concurrent callers share
// one remote call.
func (s *ComptesService) Refresh(ctx context.Context) []domain.Compte {
	ctx, span := tracer.Start(ctx, "ComptesService.Refresh")
	defer span.End()

	v, _, shared := s.refreshes.Do("list", func() (any, error) {
		return s.remote.ListComptes(ctx), nil
	})
	comptes := v.([]domain.Compte)
	span.SetAttributes(
		attribute.Int("comptes.count", len(comptes)),
		attribute.Bool("refresh.shared", shared),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter.Refresh(comptes)
	s.metrics.SetListSize(s.adapter.Count())
	return s.adapter.Items()
}

// Create validates the input and asks the web service to open an account.
// On success the list is refreshed. false means the service did not
// acknowledge the request; the cause is not known.
func (s *ComptesService) Create(ctx context.Context, solde float64, t domain.TypeCompte) (bool, error) {
	ctx, span := tracer.Start(ctx, "ComptesService.Create")
	defer span.End()

	if math.IsNaN(solde) || math.IsInf(solde, 0) {
		return false, &domain.ErrValidation{Field: "solde", Message: "must be a finite number"}
	}
	if _, ok := domain.ParseTypeCompte(t.String()); !ok {
		return false, &domain.ErrValidation{Field: "type", Message: "must be COURANT or EPARGNE"}
	}

	if !s.remote.CreateCompte(ctx, solde, t) {
		s.logger.Warn("compte creation not acknowledged", zap.Float64("solde", solde), zap.String("type", t.String()))
		return false, nil
	}
	s.Refresh(ctx)
	return true, nil
}

// RequestDelete fires the delete intent of the row holding id, as if the
// user pressed its delete button, and reports whether the remote delete
// succeeded.
func (s *ComptesService) RequestDelete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "ComptesService.RequestDelete")
	defer span.End()
	span.SetAttributes(attribute.Int64("compte.id", id))

	s.mu.Lock()
	slot, err := s.bindID(id)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.intent = intentResult{}
	slot.onDelete()
	target := s.intent.deleting
	s.intent = intentResult{}
	s.mu.Unlock()

	if target == nil {
		return false, nil
	}

	// mu is not held during the remote call.
	if !s.remote.DeleteCompte(ctx, *target.ID) {
		s.logger.Warn("compte deletion not acknowledged", zap.Int64("id", *target.ID))
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.adapter.Remove(*target); ok {
		s.logger.Info("compte removed from list", zap.Int64("id", *target.ID), zap.Int("position", pos))
	}
	s.metrics.SetListSize(s.adapter.Count())
	return true, nil
}

// RequestEdit fires the edit intent of the row holding id and returns the
// record the edit handler received.
func (s *ComptesService) RequestEdit(id int64) (domain.Compte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.bindID(id)
	if err != nil {
		return domain.Compte{}, err
	}

	s.intent = intentResult{}
	slot.onEdit()
	edited := s.intent.edited
	s.intent = intentResult{}
	if edited == nil {
		return domain.Compte{}, &domain.ErrNotFound{Resource: "compte", ID: strconv.FormatInt(id, 10)}
	}
	return *edited, nil
}

// Rows renders the current list through the adapter.
func (s *ComptesService) Rows() []domain.CompteRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]domain.CompteRow, 0, s.adapter.Count())
	for i := 0; i < s.adapter.Count(); i++ {
		slot := &rowSlot{}
		s.adapter.BindPosition(i, slot)
		row := slot.row
		row.ID = s.adapter.Item(i).ID
		rows = append(rows, row)
	}
	return rows
}

// Count returns the number of accounts currently listed.
func (s *ComptesService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Count()
}

// Ping lists accounts once and reports how long it took. The client never
// errors, so a reachable but empty service and an unreachable one look alike.
func (s *ComptesService) Ping(ctx context.Context) (int, time.Duration) {
	start := time.Now()
	n := len(s.remote.ListComptes(ctx))
	return n, time.Since(start)
}

// bindID binds the row holding id. Caller holds mu.
func (s *ComptesService) bindID(id int64) (*rowSlot, error) {
	pos := s.adapter.IndexOfID(id)
	if pos < 0 {
		return nil, &domain.ErrNotFound{Resource: "compte", ID: strconv.FormatInt(id, 10)}
	}
	slot := &rowSlot{}
	s.adapter.BindPosition(pos, slot)
	return slot, nil
}

// onDeleteRequested runs with mu held, from inside RequestDelete. It only
// records the target; the remote call happens once mu is released.
func (s *ComptesService) onDeleteRequested(c domain.Compte) {
	if c.ID == nil {
		s.logger.Warn("delete requested for compte without id")
		return
	}
	s.intent.deleting = &c
}

func (s *ComptesService) onEditRequested(c domain.Compte) {
	s.logger.Info("edit requested", zap.Any("compte", c))
	s.intent.edited = &c
}

// rowSlot collects what the adapter binds into a display row.
type rowSlot struct {
	row      domain.CompteRow
	onEdit   func()
	onDelete func()
}

func (r *rowSlot) SetID(text string)     { r.row.Title = text }
func (r *rowSlot) SetSolde(text string)  { r.row.Solde = text }
func (r *rowSlot) SetType(text string)   { r.row.Type = domain.TypeCompte(text) }
func (r *rowSlot) SetDate(text string)   { r.row.Date = text }
func (r *rowSlot) SetOnEdit(fn func())   { r.onEdit = fn }
func (r *rowSlot) SetOnDelete(fn func()) { r.onDelete = fn }
