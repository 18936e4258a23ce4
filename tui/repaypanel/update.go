package repaypanel

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nhbrepay/repay"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.feedback.Notify(repay.Notification{
				Message:     "Unable to load accounts.",
				Kind:        repay.KindWarning,
				Description: msg.err.Error(),
			})
		}
		m.refresh()

	case repayResultMsg:
		if err := m.orch.Complete(msg.sub, msg.receipt, msg.err); err == nil {
			m.sub = nil
			m.syncText()
		}

	case spinner.TickMsg:
		if !m.orch.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.orch.State() == repay.StateConfirmed {
		switch {
		case key.Matches(msg, keys.Dismiss):
			m.orch.Dismiss()
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Next):
		m.setFocus(m.focus + 1)
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.setFocus(m.focus - 1)
		return m, nil
	case key.Matches(msg, keys.Submit):
		return m, m.trigger()
	}

	input := m.orch.Input()
	switch m.focus {
	case fieldAmount:
		if m.orch.Pending() {
			return m, nil
		}
		before := m.amount.Value()
		var cmd tea.Cmd
		m.amount, cmd = m.amount.Update(msg)
		if after := m.amount.Value(); after != before {
			if repay.IsNumericInput(after) {
				input.SetText(after)
			} else {
				m.amount.SetValue(before)
			}
		}
		return m, cmd

	case fieldSlider:
		if m.orch.Pending() {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Left):
			input.SetPercentage(snapStep(input.Percentage(), -1))
		case key.Matches(msg, keys.Right):
			input.SetPercentage(snapStep(input.Percentage(), 1))
		case key.Matches(msg, keys.Min):
			input.SetPercentage(0)
		case key.Matches(msg, keys.Max):
			input.SetPercentage(100)
		default:
			return m, nil
		}
		m.syncText()

	case fieldCollateral:
		switch {
		case key.Matches(msg, keys.Left):
			m.cycleCollateral(-1)
		case key.Matches(msg, keys.Right):
			m.cycleCollateral(1)
		}
	}
	return m, nil
}
