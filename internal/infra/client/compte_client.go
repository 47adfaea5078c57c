package client

import (
	"context"
	"errors"
	"time"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"
	"github.com/boddenberg/comptes-soap-go/internal/infra/soap"
	"github.com/boddenberg/comptes-soap-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// SOAP operations exposed by the account web service.
const (
	MethodGetComptes   = "getComptes"
	MethodCreateCompte = "createCompte"
	MethodDeleteCompte = "deleteCompte"
)

// CompteClient calls the account SOAP service.
// None of its methods return errors: failures are logged and collapse to an
// empty list or false.
type CompteClient struct {
	transport port.SOAPTransport
	namespace string
	action    string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

var _ port.CompteRemote = (*CompteClient)(nil)

// NewCompteClient creates a CompteClient sending requests in namespace with
// the given SOAPAction (usually empty).
func NewCompteClient(transport port.SOAPTransport, namespace, action string, metrics *observability.Metrics, logger *zap.Logger) *CompteClient {
	return &CompteClient{
		transport: transport,
		namespace: namespace,
		action:    action,
		metrics:   metrics,
		logger:    logger.Named("soap"),
	}
}

// ListComptes fetches every account. Each structured element becomes one
// Compte, with defaults for whatever it lacks; any call failure yields an
// empty, non-nil slice.
func (c *CompteClient) ListComptes(ctx context.Context) []domain.Compte {
	ctx, span := tracer.Start(ctx, "CompteClient.ListComptes")
	defer span.End()

	comptes := []domain.Compte{}
	log := c.callLogger(ctx, MethodGetComptes)
	log.Info("soap call")

	env := soap.NewEnvelope(soap.NewRequest(c.namespace, MethodGetComptes))
	body, err := c.call(ctx, log, MethodGetComptes, env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return comptes
	}

	log.Debug("response elements", zap.Int("count", body.PropertyCount()))
	for i, el := range body.Children() {
		if !el.IsStructured() {
			continue
		}
		compte := c.parseCompte(log, el)
		log.Debug("compte parsed", zap.Int("index", i), zap.Any("compte", compte))
		comptes = append(comptes, compte)
	}

	span.SetAttributes(attribute.Int("comptes.count", len(comptes)))
	return comptes
}

// CreateCompte asks the service to open an account. It returns false on any
// failure, whether or not the request reached the server.
func (c *CompteClient) CreateCompte(ctx context.Context, solde float64, t domain.TypeCompte) bool {
	ctx, span := tracer.Start(ctx, "CompteClient.CreateCompte")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("compte.solde", solde),
		attribute.String("compte.type", t.String()),
	)

	log := c.callLogger(ctx, MethodCreateCompte)
	log.Info("soap call", zap.Float64("solde", solde), zap.String("type", t.String()))

	req := soap.NewRequest(c.namespace, MethodCreateCompte).
		AddProperty("solde", domain.FormatDecimal(solde)).
		AddProperty("type", t.String())
	env := soap.NewEnvelope(req)
	env.AddMapping(soap.XSDNamespace, "double", soap.KindDouble)

	if _, err := c.call(ctx, log, MethodCreateCompte, env); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false
	}
	log.Info("compte created")
	return true
}

// DeleteCompte asks the service to delete account id.
func (c *CompteClient) DeleteCompte(ctx context.Context, id int64) bool {
	ctx, span := tracer.Start(ctx, "CompteClient.DeleteCompte")
	defer span.End()
	span.SetAttributes(attribute.Int64("compte.id", id))

	log := c.callLogger(ctx, MethodDeleteCompte)
	log.Info("soap call", zap.Int64("id", id))

	env := soap.NewEnvelope(soap.NewRequest(c.namespace, MethodDeleteCompte).AddProperty("id", id))
	if _, err := c.call(ctx, log, MethodDeleteCompte, env); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false
	}
	log.Info("compte deleted")
	return true
}

// callLogger tags every line of one call with a fresh call id and, when the
// call is sampled, its trace id.
func (c *CompteClient) callLogger(ctx context.Context, method string) *zap.Logger {
	fields := []zap.Field{zap.String("call", method), zap.String("call_id", uuid.NewString())}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	return c.logger.With(fields...)
}

// call encodes env, exchanges it and returns the response's body element.
// Every failure is logged and counted here.
func (c *CompteClient) call(ctx context.Context, log *zap.Logger, method string, env *soap.Envelope) (*soap.Element, error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordCallDuration(method, time.Since(start))
	}()

	payload, err := env.Marshal()
	if err != nil {
		c.metrics.IncrSOAPCall(method, observability.OutcomeEncode)
		log.Error("failed to encode request", zap.Error(err))
		return nil, err
	}
	log.Debug("request xml", zap.ByteString("envelope", payload))

	raw, err := c.transport.Call(ctx, c.action, payload)
	if err != nil {
		c.metrics.IncrSOAPCall(method, observability.OutcomeTransport)
		log.Error("soap call failed", zap.Error(err))
		return nil, err
	}
	log.Debug("response xml", zap.ByteString("envelope", raw))

	body, err := soap.ParseResponse(raw)
	if err != nil {
		var fault *domain.ErrSOAPFault
		if errors.As(err, &fault) {
			c.metrics.IncrSOAPCall(method, observability.OutcomeFault)
			log.Error("soap fault", zap.String("faultcode", fault.Code), zap.String("faultstring", fault.String))
		} else {
			c.metrics.IncrSOAPCall(method, observability.OutcomeTransport)
			log.Error("invalid soap response", zap.Error(err))
		}
		return nil, err
	}

	c.metrics.IncrSOAPCall(method, observability.OutcomeOK)
	return body, nil
}
