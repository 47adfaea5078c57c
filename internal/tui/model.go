// Package tui is a terminal front end for the account list. The bubbletea
// update loop is the only owner of its adapter.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/comptes-soap-go/internal/adapter"
	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/port"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type mode int

const (
	modeList mode = iota
	modeCreate
)

// ---------------------------------------------------------------------------
// Bubble Tea messages
// ---------------------------------------------------------------------------

type comptesLoadedMsg struct {
	comptes []domain.Compte
}

type compteCreatedMsg struct {
	ok bool
}

type compteDeletedMsg struct {
	compte domain.Compte
	ok     bool
}

// row is one bound list entry.
type row struct {
	title, solde, typ, date string
	onEdit, onDelete        func()
}

func (r *row) SetID(text string)     { r.title = text }
func (r *row) SetSolde(text string)  { r.solde = text }
func (r *row) SetType(text string)   { r.typ = text }
func (r *row) SetDate(text string)   { r.date = text }
func (r *row) SetOnEdit(fn func())   { r.onEdit = fn }
func (r *row) SetOnDelete(fn func()) { r.onDelete = fn }

// Model is the bubbletea model.
type Model struct {
	remote  port.CompteRemote
	timeout time.Duration
	logger  *zap.Logger

	adapter *adapter.CompteAdapter
	rows    []row
	cursor  int

	mode      mode
	input     string
	inputType domain.TypeCompte

	detail    *domain.Compte
	pending   tea.Cmd
	loading   bool
	autoFetch bool
	status    string
	statusErr bool
}

// New creates a model backed by remote. Each remote call gets its own
// timeout. When autoFetch is set the list is loaded on start.
func New(remote port.CompteRemote, timeout time.Duration, autoFetch bool, logger *zap.Logger) *Model {
	m := &Model{
		remote:    remote,
		timeout:   timeout,
		logger:    logger,
		inputType: domain.TypeCourant,
		autoFetch: autoFetch,
		status:    "Press r to load accounts.",
	}
	m.adapter = adapter.New(m)
	m.adapter.OnEditRequested = m.onEditRequested
	m.adapter.OnDeleteRequested = m.onDeleteRequested
	return m
}

// DataSetChanged rebinds every row.
func (m *Model) DataSetChanged() {
	m.rows = make([]row, m.adapter.Count())
	for i := range m.rows {
		m.adapter.BindPosition(i, &m.rows[i])
	}
	m.clampCursor()
}

// ItemRemoved rebinds the remaining rows and closes the detail panel if it
// showed the removed record.
func (m *Model) ItemRemoved(position int) {
	m.DataSetChanged()
	if m.detail != nil && m.adapter.IndexOfID(idOf(*m.detail)) < 0 {
		m.detail = nil
	}
}

func (m *Model) onEditRequested(c domain.Compte) {
	m.detail = &c
}

func (m *Model) onDeleteRequested(c domain.Compte) {
	if c.ID == nil {
		m.setError("This account has no number and cannot be deleted.")
		return
	}
	m.loading = true
	m.status = fmt.Sprintf("Deleting %s...", adapter.Title(c))
	m.pending = m.deleteCmd(c)
}

// ---------------------------------------------------------------------------
// Bubble Tea interface: Init / Update / View
// ---------------------------------------------------------------------------

func (m *Model) Init() tea.Cmd {
	if !m.autoFetch {
		return nil
	}
	m.loading = true
	return m.refreshCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case comptesLoadedMsg:
		m.loading = false
		m.adapter.Refresh(msg.comptes)
		m.setStatus(fmt.Sprintf("%d account(s) loaded.", len(msg.comptes)))
		return m, nil
	case compteCreatedMsg:
		if !msg.ok {
			m.loading = false
			m.setError("The service did not create the account.")
			return m, nil
		}
		m.setStatus("Account created, reloading...")
		return m, m.refreshCmd()
	case compteDeletedMsg:
		m.loading = false
		if !msg.ok {
			m.setError(fmt.Sprintf("Could not delete %s.", adapter.Title(msg.compte)))
			return m, nil
		}
		m.adapter.Remove(msg.compte)
		m.setStatus(fmt.Sprintf("%s deleted.", adapter.Title(msg.compte)))
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeCreate {
			return m.updateCreate(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.setStatus("Loading...")
		return m, m.refreshCmd()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "e":
		if r := m.current(); r != nil {
			r.onEdit()
		}
	case "esc":
		m.detail = nil
	case "d":
		if m.loading {
			return m, nil
		}
		if r := m.current(); r != nil {
			r.onDelete()
			cmd := m.pending
			m.pending = nil
			return m, cmd
		}
	case "n":
		m.mode = modeCreate
		m.input = ""
		m.setStatus("New account: type a balance, tab switches type, enter submits.")
	}
	return m, nil
}

func (m *Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeList
		m.setStatus("Creation cancelled.")
	case "tab", "n":
		m.inputType = nextType(m.inputType)
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case "enter":
		solde, err := strconv.ParseFloat(strings.TrimSpace(m.input), 64)
		if err != nil {
			m.setError(fmt.Sprintf("%q is not a valid balance.", m.input))
			return m, nil
		}
		m.mode = modeList
		m.loading = true
		m.setStatus("Creating account...")
		return m, m.createCmd(solde, m.inputType)
	default:
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				if (r >= '0' && r <= '9') || r == '.' || r == '-' {
					m.input += string(r)
				}
			}
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m *Model) refreshCmd() tea.Cmd {
	remote, timeout := m.remote, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return comptesLoadedMsg{comptes: remote.ListComptes(ctx)}
	}
}

func (m *Model) createCmd(solde float64, t domain.TypeCompte) tea.Cmd {
	remote, timeout := m.remote, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return compteCreatedMsg{ok: remote.CreateCompte(ctx, solde, t)}
	}
}

func (m *Model) deleteCmd(c domain.Compte) tea.Cmd {
	remote, timeout := m.remote, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return compteDeletedMsg{compte: c, ok: remote.DeleteCompte(ctx, *c.ID)}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (m *Model) current() *row {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.logger.Warn("tui error", zap.String("status", s))
	m.status = s
	m.statusErr = true
}

func nextType(t domain.TypeCompte) domain.TypeCompte {
	for i, candidate := range domain.TypesCompte {
		if candidate == t {
			return domain.TypesCompte[(i+1)%len(domain.TypesCompte)]
		}
	}
	return domain.TypeCourant
}

func idOf(c domain.Compte) int64 {
	if c.ID == nil {
		return -1
	}
	return *c.ID
}
