// Package adapter holds the ordered list of accounts shown by a view layer
// and translates list changes and row intents between the two.
//
// A CompteAdapter is not safe for concurrent use: the goroutine that owns
// the view is the only one allowed to touch it.
package adapter

import (
	"strconv"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
)

// Notifier receives the minimal change set after each list mutation.
type Notifier interface {
	DataSetChanged()
	ItemRemoved(position int)
}

// ViewSlot is one rendered row. Bind fills it and attaches the row intents.
type ViewSlot interface {
	SetID(text string)
	SetSolde(text string)
	SetType(text string)
	SetDate(text string)
	SetOnEdit(fn func())
	SetOnDelete(fn func())
}

// CompteAdapter owns the displayed list.
type CompteAdapter struct {
	comptes  []domain.Compte
	notifier Notifier

	// Set by the owning controller. Nil handlers are ignored.
	OnEditRequested   func(domain.Compte)
	OnDeleteRequested func(domain.Compte)
}

// New creates an empty adapter reporting to n, which may be nil.
func New(n Notifier) *CompteAdapter {
	return &CompteAdapter{notifier: n}
}

// Refresh replaces the whole list with newComptes.
func (a *CompteAdapter) Refresh(newComptes []domain.Compte) {
	a.comptes = append(make([]domain.Compte, 0, len(newComptes)), newComptes...)
	if a.notifier != nil {
		a.notifier.DataSetChanged()
	}
}

// Remove deletes the first record equal to c and returns its former
// position. A record that is not in the list is ignored.
func (a *CompteAdapter) Remove(c domain.Compte) (int, bool) {
	for i, cur := range a.comptes {
		if !cur.Equal(c) {
			continue
		}
		a.comptes = append(a.comptes[:i], a.comptes[i+1:]...)
		if a.notifier != nil {
			a.notifier.ItemRemoved(i)
		}
		return i, true
	}
	return -1, false
}

// Count returns the current list length.
func (a *CompteAdapter) Count() int { return len(a.comptes) }

// Item returns the record at position.
func (a *CompteAdapter) Item(position int) domain.Compte { return a.comptes[position] }

// Items returns a copy of the list.
func (a *CompteAdapter) Items() []domain.Compte {
	return append([]domain.Compte(nil), a.comptes...)
}

// IndexOfID returns the position of the first record with the given id, or -1.
func (a *CompteAdapter) IndexOfID(id int64) int {
	for i, c := range a.comptes {
		if c.ID != nil && *c.ID == id {
			return i
		}
	}
	return -1
}

// BindPosition binds the record at position to slot.
func (a *CompteAdapter) BindPosition(position int, slot ViewSlot) {
	a.Bind(a.comptes[position], slot)
}

// Bind renders c into slot and wires the row's edit and delete intents.
func (a *CompteAdapter) Bind(c domain.Compte, slot ViewSlot) {
	slot.SetID(Title(c))
	slot.SetSolde(domain.FormatDecimal(c.Solde) + " DH")
	slot.SetType(c.Type.String())
	slot.SetDate(FormatDate(c.DateCreation))

	slot.SetOnEdit(func() {
		if a.OnEditRequested != nil {
			a.OnEditRequested(c)
		}
	})
	slot.SetOnDelete(func() {
		if a.OnDeleteRequested != nil {
			a.OnDeleteRequested(c)
		}
	})
}

// Title is the row heading for c. Records without an ID show a dash.
func Title(c domain.Compte) string {
	if c.ID == nil {
		return "Compte Numéro -"
	}
	return "Compte Numéro " + strconv.FormatInt(*c.ID, 10)
}
