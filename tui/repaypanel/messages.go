package repaypanel

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"nhbrepay/repay"
)

type loadedMsg struct {
	err error
}

type repayResultMsg struct {
	sub     *repay.Submission
	receipt repay.Receipt
	err     error
}

func loadCmd(ctx context.Context, load func(context.Context) error) tea.Cmd {
	if load == nil {
		return nil
	}
	return func() tea.Msg {
		return loadedMsg{err: load(ctx)}
	}
}

func submitCmd(ctx context.Context, orch *repay.Orchestrator, sub *repay.Submission) tea.Cmd {
	return func() tea.Msg {
		receipt, err := orch.Submit(ctx, sub)
		return repayResultMsg{sub: sub, receipt: receipt, err: err}
	}
}
