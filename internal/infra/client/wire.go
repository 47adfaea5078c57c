package client

import (
	"net/http"

	"github.com/boddenberg/comptes-soap-go/internal/config"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"
	"github.com/boddenberg/comptes-soap-go/internal/infra/resilience"
	"github.com/boddenberg/comptes-soap-go/internal/infra/soap"

	"go.uber.org/zap"
)

// NewFromConfig wires the account client over an HTTP transport with the
// configured timeout, retries, circuit breaker and concurrency limit.
func NewFromConfig(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *CompteClient {
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("soap")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	transport := soap.NewHTTPTransport(httpClient, cfg.SOAPURL, cb, resilienceCfg, resilience.NewBulkhead(cfg.MaxConcurrency))
	return NewCompteClient(transport, cfg.SOAPNamespace, cfg.SOAPAction, metrics, logger)
}
