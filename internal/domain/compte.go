package domain

import (
	"strconv"
	"strings"
)

// ============================================================
// Comptes
// ============================================================

// TypeCompte is the account type as exchanged with the SOAP service.
type TypeCompte string

const (
	TypeCourant TypeCompte = "COURANT" // current account
	TypeEpargne TypeCompte = "EPARGNE" // savings account
)

// TypesCompte lists every known account type in declaration order.
var TypesCompte = []TypeCompte{TypeCourant, TypeEpargne}

// String returns the symbolic name used on the wire.
func (t TypeCompte) String() string { return string(t) }

// ParseTypeCompte matches s against the symbolic names exactly.
func ParseTypeCompte(s string) (TypeCompte, bool) {
	for _, t := range TypesCompte {
		if string(t) == s {
			return t, true
		}
	}
	return TypeCourant, false
}

// Compte is one bank account as returned by getComptes.
// Values are never mutated after construction.
type Compte struct {
	ID           *int64     `json:"id,omitempty"`
	Solde        float64    `json:"solde"`
	DateCreation string     `json:"dateCreation,omitempty"`
	Type         TypeCompte `json:"type"`
}

// NewCompte builds a record that has not been created remotely yet.
func NewCompte(solde float64, t TypeCompte) Compte {
	if t == "" {
		t = TypeCourant
	}
	return Compte{Solde: solde, Type: t}
}

// Int64 returns a pointer to v, for building records with an ID.
func Int64(v int64) *int64 { return &v }

// HasID reports whether the record carries a server identifier.
func (c Compte) HasID() bool { return c.ID != nil }

// Equal compares two records by value, including the pointed-to ID.
func (c Compte) Equal(o Compte) bool {
	switch {
	case c.ID == nil && o.ID != nil, c.ID != nil && o.ID == nil:
		return false
	case c.ID != nil && *c.ID != *o.ID:
		return false
	}
	return c.Solde == o.Solde && c.DateCreation == o.DateCreation && c.Type == o.Type
}

// FormatDecimal renders a balance the way the SOAP service and the
// display both expect it: shortest round-trip digits, always with a
// fractional part ("1500.0", "0.1").
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	return s + ".0"
}

// CompteRow is the display projection of a Compte produced by the list adapter.
type CompteRow struct {
	ID    *int64     `json:"id,omitempty"`
	Title string     `json:"title"`
	Solde string     `json:"solde"`
	Type  TypeCompte `json:"type"`
	Date  string     `json:"date"`
}

// CreateCompteRequest is the body of POST /v1/comptes.
type CreateCompteRequest struct {
	Solde float64 `json:"solde"`
	Type  string  `json:"type"`
}
