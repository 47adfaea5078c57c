package tui

import (
	"fmt"
	"strings"

	"github.com/boddenberg/comptes-soap-go/internal/adapter"
	"github.com/boddenberg/comptes-soap-go/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236")).Padding(0, 1)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	courantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	epargneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const emptyListText = "No accounts."

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Comptes"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render(emptyListText))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		line := fmt.Sprintf("%-22s %16s  %-8s %s", r.title, r.solde, typeStyle(r.typ).Render(fmt.Sprintf("%-8s", r.typ)), r.date)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.detail != nil {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(renderDetail(*m.detail)))
		b.WriteString("\n")
	}

	if m.mode == modeCreate {
		b.WriteString("\n")
		prompt := fmt.Sprintf("Solde: %s_   Type: %s", m.input, typeStyle(m.inputType.String()).Render(m.inputType.String()))
		b.WriteString(panelStyle.Render(prompt))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.statusErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.help()))
	return b.String()
}

func (m *Model) help() string {
	if m.mode == modeCreate {
		return "0-9 . - balance • tab type • enter create • esc cancel"
	}
	return "r refresh • ↑/↓ select • e details • d delete • n new • q quit"
}

func renderDetail(c domain.Compte) string {
	lines := []string{
		titleStyle.Render(adapter.Title(c)),
		"Solde:    " + domain.FormatDecimal(c.Solde) + " DH",
		"Type:     " + c.Type.String(),
		"Création: " + adapter.FormatDate(c.DateCreation),
	}
	if c.DateCreation != "" {
		lines = append(lines, mutedStyle.Render("raw: "+c.DateCreation))
	}
	return strings.Join(lines, "\n")
}

func typeStyle(t string) lipgloss.Style {
	switch domain.TypeCompte(t) {
	case domain.TypeEpargne:
		return epargneStyle
	default:
		return courantStyle
	}
}
