package client

import (
	"strconv"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/soap"

	"go.uber.org/zap"
)

// Property names of an account element.
const (
	propID           = "id"
	propSolde        = "solde"
	propDateCreation = "dateCreation"
	propType         = "type"
)

// parseCompte turns one response element into a Compte. It cannot fail:
// every missing or unreadable field falls back to its default.
func (c *CompteClient) parseCompte(log *zap.Logger, el *soap.Element) domain.Compte {
	fields := el.Fields()

	prop := func(name string) (string, bool) {
		v, ok := fields.Text(name)
		if !ok {
			log.Warn("property not found", zap.String("property", name), zap.String("element", el.Name))
		}
		return v, ok
	}

	id := parseID(prop(propID))
	solde := parseSolde(prop(propSolde))
	date, _ := prop(propDateCreation)

	raw, present := prop(propType)
	t, ok := parseType(raw, present)
	if !ok {
		c.metrics.IncrParseFailure(propType)
		log.Warn("invalid account type, defaulting to COURANT", zap.String("type", raw))
	}

	return domain.Compte{
		ID:           id,
		Solde:        solde,
		DateCreation: date,
		Type:         t,
	}
}

// parseID returns nil when the property is absent or not an integer.
func parseID(text string, present bool) *int64 {
	if !present {
		return nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseSolde returns 0 when the property is absent or not a number.
func parseSolde(text string, present bool) float64 {
	if !present {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseType returns COURANT when absent; ok is false only for a value that
// is present but unknown.
func parseType(text string, present bool) (domain.TypeCompte, bool) {
	if !present {
		return domain.TypeCourant, true
	}
	return domain.ParseTypeCompte(text)
}
