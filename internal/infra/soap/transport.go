package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("soap")

const contentType = "text/xml;charset=utf-8"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// HTTPTransport posts envelopes to a single SOAP endpoint.
// It is safe for concurrent use.
type HTTPTransport struct {
	httpClient *http.Client
	url        string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewHTTPTransport creates a transport for url. A nil bulkhead disables the
// concurrency limit.
func NewHTTPTransport(httpClient *http.Client, url string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bulkhead *resilience.Bulkhead) *HTTPTransport {
	return &HTTPTransport{
		httpClient: httpClient,
		url:        url,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
	}
}

// URL returns the endpoint the transport posts to.
func (t *HTTPTransport) URL() string { return t.url }

// Call posts envelope with the given SOAPAction and returns the response body.
// 500 responses are returned like 200 ones since SOAP 1.1 carries faults in them.
func (t *HTTPTransport) Call(ctx context.Context, action string, envelope []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "HTTPTransport.Call")
	defer span.End()
	span.SetAttributes(
		attribute.String("soap.url", t.url),
		attribute.Int("soap.request_bytes", len(envelope)),
	)

	if t.bulkhead != nil {
		if err := t.bulkhead.Acquire(ctx); err != nil {
			return nil, &domain.ErrExternalService{Service: "soap", Err: err}
		}
		defer t.bulkhead.Release()
	}

	result, err := t.cb.Execute(func() (any, error) {
		var body []byte
		innerErr := resilience.RetryWithBackoff(ctx, t.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(envelope))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("SOAPAction", `"`+action+`"`)

			resp, err := t.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
				return fmt.Errorf("soap endpoint returned status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			return err
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return body, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.ErrCircuitOpen{Service: "soap"}
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "soap", Err: err}
	}

	body := result.([]byte)
	span.SetAttributes(attribute.Int("soap.response_bytes", len(body)))
	return body, nil
}
