package repaypanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nhbrepay/repay"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	labelStyle    = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("245"))
	focusedLabel  = labelStyle.Foreground(lipgloss.Color("212"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle   = lipgloss.NewStyle().Padding(0, 3).Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	buttonFocused = buttonStyle.Background(lipgloss.Color("212"))
	buttonOff     = lipgloss.NewStyle().Padding(0, 3).Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236"))
	overlayStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("42")).Padding(1, 3)
	panelStyle    = lipgloss.NewStyle().Padding(1, 2)

	kindStyles = map[repay.Kind]lipgloss.Style{
		repay.KindError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		repay.KindWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		repay.KindSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		repay.KindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
	}
)

// View implements tea.Model.
func (m Model) View() string {
	if m.orch.State() == repay.StateConfirmed {
		return m.viewConfirmed()
	}
	return panelStyle.Render(m.viewPanel())
}

func (m Model) viewPanel() string {
	input := m.orch.Input()
	symbol := m.symbol()

	lines := []string{titleStyle.Render("Repay " + symbol + " loan")}
	if m.loading {
		lines = append(lines, mutedStyle.Render("Loading accounts..."))
	}
	lines = append(lines,
		mutedStyle.Render(fmt.Sprintf("Borrowed %s %s", repay.ToAmountText(100, input.BorrowAmount()), symbol)),
		"",
		m.label(fieldAmount, "Amount")+m.amount.View(),
		m.label(fieldSlider, "Percent")+renderSlider(input.Percentage(), m.focus == fieldSlider),
		strings.Repeat(" ", 12)+renderMarks(),
		m.label(fieldCollateral, "Collateral")+m.viewCollateral(),
		"",
		m.viewButton(),
	)
	if notes := m.feedback.Notes(); len(notes) > 0 {
		lines = append(lines, "")
		for _, note := range notes {
			lines = append(lines, viewNote(note))
		}
	}
	lines = append(lines, "", mutedStyle.Render("tab next • ←/→ adjust • enter repay • ctrl+c quit"))
	return strings.Join(lines, "\n")
}

func (m Model) label(f field, text string) string {
	if m.focus == f {
		return focusedLabel.Render(text)
	}
	return labelStyle.Render(text)
}

func (m Model) symbol() string {
	reserve, ok := m.resolver.RepayReserve(m.target)
	if !ok {
		return "loan"
	}
	if m.namer != nil {
		if name := m.namer.Name(reserve.LiquidityMint); name != "" {
			return name
		}
	}
	return reserve.LiquidityMint
}

func (m Model) viewCollateral() string {
	if m.selector == nil {
		return mutedStyle.Render("no reserve loaded")
	}
	options := m.selector.Options()
	if len(options) == 0 {
		return mutedStyle.Render("no collateral reserves")
	}
	label := "select"
	for _, option := range options {
		if option.Reserve.Address == m.selector.Selected() {
			label = option.Label
			break
		}
	}
	if m.focus == fieldCollateral {
		return accentStyle.Render("‹ " + label + " ›")
	}
	return label
}

func (m Model) viewButton() string {
	if m.orch.Pending() {
		return buttonOff.Render(m.spin.View() + " Repaying")
	}
	if !m.orch.CanTrigger(m.request()) {
		return buttonOff.Render("Repay")
	}
	if m.focus == fieldButton {
		return buttonFocused.Render("Repay")
	}
	return buttonStyle.Render("Repay")
}

func viewNote(n repay.Notification) string {
	style, ok := kindStyles[n.Kind]
	if !ok {
		style = mutedStyle
	}
	text := n.Message
	if n.Description != "" {
		text += " " + mutedStyle.Render(n.Description)
	}
	return style.Render(text)
}

func (m Model) viewConfirmed() string {
	receipt := m.orch.Receipt()
	body := []string{
		kindStyles[repay.KindSuccess].Bold(true).Render("Repayment confirmed"),
		"",
	}
	if receipt.TxHash != "" {
		body = append(body, "tx      "+receipt.TxHash)
	}
	if receipt.RequestID != "" {
		body = append(body, "request "+receipt.RequestID)
	}
	body = append(body, "", mutedStyle.Render("enter to close"))
	box := overlayStyle.Render(strings.Join(body, "\n"))
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return panelStyle.Render(box)
}
