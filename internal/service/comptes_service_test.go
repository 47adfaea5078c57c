package service_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/comptes-soap-go/internal/adapter"
	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"
	"github.com/boddenberg/comptes-soap-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockRemote struct {
	mu        sync.Mutex
	comptes   []domain.Compte
	createOK  bool
	deleteOK  bool
	listCalls int
	created   []domain.Compte
	deleted   []int64

	// When set, DeleteCompte signals deleting and waits on release.
	deleting chan struct{}
	release  chan struct{}
}

func (m *mockRemote) ListComptes(_ context.Context) []domain.Compte {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]domain.Compte{}, m.comptes...)
}

func (m *mockRemote) CreateCompte(_ context.Context, solde float64, t domain.TypeCompte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.createOK {
		return false
	}
	c := domain.Compte{ID: domain.Int64(int64(len(m.comptes) + 100)), Solde: solde, Type: t}
	m.created = append(m.created, c)
	m.comptes = append(m.comptes, c)
	return true
}

func (m *mockRemote) DeleteCompte(_ context.Context, id int64) bool {
	if m.deleting != nil {
		close(m.deleting)
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.deleteOK
}

type recordingView struct {
	mu      sync.Mutex
	changed int
	removed []int
}

func (v *recordingView) DataSetChanged() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.changed++
}

func (v *recordingView) ItemRemoved(position int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed = append(v.removed, position)
}

func seed() []domain.Compte {
	return []domain.Compte{
		{ID: domain.Int64(1), Solde: 100, DateCreation: "2024-03-05", Type: domain.TypeCourant},
		{ID: domain.Int64(2), Solde: 250.5, Type: domain.TypeEpargne},
		{ID: domain.Int64(3), Solde: 0, Type: domain.TypeCourant},
	}
}

func newService(remote *mockRemote, view adapter.Notifier) *service.ComptesService {
	return service.NewComptesService(remote, view, observability.NewMetrics(), zap.NewNop())
}

// --- Tests ---

func TestRefresh_LoadsAdapter(t *testing.T) {
	view := &recordingView{}
	svc := newService(&mockRemote{comptes: seed()}, view)

	comptes := svc.Refresh(context.Background())

	if len(comptes) != 3 || svc.Count() != 3 {
		t.Fatalf("expected 3 comptes, got %d / %d", len(comptes), svc.Count())
	}
	if view.changed != 1 {
		t.Errorf("expected 1 dataset notification, got %d", view.changed)
	}
}

func TestRows_Formatting(t *testing.T) {
	svc := newService(&mockRemote{comptes: seed()}, nil)
	svc.Refresh(context.Background())

	rows := svc.Rows()

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Title != "Compte Numéro 1" || rows[0].Solde != "100.0 DH" || rows[0].Date != "05/03/2024" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].Type != domain.TypeEpargne || rows[1].Date != "Date inconnue" {
		t.Errorf("unexpected second row %+v", rows[1])
	}
	if rows[2].ID == nil || *rows[2].ID != 3 {
		t.Errorf("expected row id 3, got %v", rows[2].ID)
	}
}

func TestCreate_RefreshesOnSuccess(t *testing.T) {
	remote := &mockRemote{comptes: seed(), createOK: true}
	svc := newService(remote, nil)

	ok, err := svc.Create(context.Background(), 42.5, domain.TypeEpargne)

	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if svc.Count() != 4 {
		t.Errorf("expected 4 comptes after refresh, got %d", svc.Count())
	}
}

func TestCreate_RemoteFailure(t *testing.T) {
	remote := &mockRemote{comptes: seed()}
	svc := newService(remote, nil)

	ok, err := svc.Create(context.Background(), 10, domain.TypeCourant)

	if err != nil || ok {
		t.Fatalf("expected false without error, got ok=%v err=%v", ok, err)
	}
	if remote.listCalls != 0 {
		t.Errorf("expected no refresh after failure, got %d list calls", remote.listCalls)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(&mockRemote{createOK: true}, nil)

	cases := map[string]struct {
		solde float64
		typ   domain.TypeCompte
	}{
		"nan":          {math.NaN(), domain.TypeCourant},
		"inf":          {math.Inf(1), domain.TypeCourant},
		"unknown type": {10, domain.TypeCompte("PREMIUM")},
		"empty type":   {10, ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.solde, tc.typ)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRequestDelete_Success(t *testing.T) {
	remote := &mockRemote{comptes: seed(), deleteOK: true}
	view := &recordingView{}
	svc := newService(remote, view)
	svc.Refresh(context.Background())

	ok, err := svc.RequestDelete(context.Background(), 2)

	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if len(remote.deleted) != 1 || remote.deleted[0] != 2 {
		t.Errorf("expected remote delete of 2, got %v", remote.deleted)
	}
	if svc.Count() != 2 {
		t.Errorf("expected 2 comptes left, got %d", svc.Count())
	}
	if len(view.removed) != 1 || view.removed[0] != 1 {
		t.Errorf("expected ItemRemoved(1), got %v", view.removed)
	}
}

func TestRequestDelete_RemoteFailureKeepsRow(t *testing.T) {
	remote := &mockRemote{comptes: seed()}
	svc := newService(remote, nil)
	svc.Refresh(context.Background())

	ok, err := svc.RequestDelete(context.Background(), 2)

	if err != nil || ok {
		t.Fatalf("expected false without error, got ok=%v err=%v", ok, err)
	}
	if svc.Count() != 3 {
		t.Errorf("expected list unchanged, got %d", svc.Count())
	}
}

func TestRequestDelete_ListReadableDuringRemoteCall(t *testing.T) {
	remote := &mockRemote{
		comptes:  seed(),
		deleteOK: true,
		deleting: make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := newService(remote, nil)
	svc.Refresh(context.Background())

	done := make(chan bool)
	go func() {
		ok, _ := svc.RequestDelete(context.Background(), 1)
		done <- ok
	}()
	<-remote.deleting

	read := make(chan int)
	go func() { read <- len(svc.Rows()) }()
	select {
	case n := <-read:
		if n != 3 {
			t.Errorf("expected 3 rows while delete is pending, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Rows blocked while the remote delete was in flight")
	}

	close(remote.release)
	if !<-done {
		t.Fatal("expected delete to succeed")
	}
	if svc.Count() != 2 {
		t.Errorf("expected 2 comptes after delete, got %d", svc.Count())
	}
}

func TestRequestDelete_UnknownID(t *testing.T) {
	remote := &mockRemote{comptes: seed(), deleteOK: true}
	svc := newService(remote, nil)
	svc.Refresh(context.Background())

	_, err := svc.RequestDelete(context.Background(), 99)

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(remote.deleted) != 0 {
		t.Errorf("expected no remote call, got %v", remote.deleted)
	}
}

func TestRequestEdit(t *testing.T) {
	svc := newService(&mockRemote{comptes: seed()}, nil)
	svc.Refresh(context.Background())

	c, err := svc.RequestEdit(2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if *c.ID != 2 || c.Solde != 250.5 {
		t.Errorf("unexpected compte %+v", c)
	}

	if _, err := svc.RequestEdit(99); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestRefresh_Concurrent(t *testing.T) {
	svc := newService(&mockRemote{comptes: seed()}, &recordingView{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Refresh(context.Background())
		}()
	}
	wg.Wait()

	if svc.Count() != 3 {
		t.Errorf("expected 3 comptes, got %d", svc.Count())
	}
}

func TestPing(t *testing.T) {
	svc := newService(&mockRemote{comptes: seed()}, nil)

	n, _ := svc.Ping(context.Background())
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}
