// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the controller and
// view layers from the SOAP implementation.
package port

import (
	"context"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
)

// SOAPTransport exchanges one encoded envelope for the raw response body.
type SOAPTransport interface {
	Call(ctx context.Context, action string, envelope []byte) ([]byte, error)
}

// CompteRemote is the account web service as seen by its callers.
// Failures never cross this boundary: listing degrades to an empty slice,
// create and delete to false.
type CompteRemote interface {
	ListComptes(ctx context.Context) []domain.Compte
	CreateCompte(ctx context.Context, solde float64, t domain.TypeCompte) bool
	DeleteCompte(ctx context.Context, id int64) bool
}
