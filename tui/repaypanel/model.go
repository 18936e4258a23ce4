// Package repaypanel renders the loan repay panel as a terminal UI on top of
// the repay orchestrator.
package repaypanel

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nhbrepay/repay"
	"nhbrepay/state/accounts"
)

type field int

const (
	fieldAmount field = iota
	fieldSlider
	fieldCollateral
	fieldButton
	fieldCount
)

// Options wires a panel.
type Options struct {
	Context      context.Context
	Orchestrator *repay.Orchestrator
	Resolver     *repay.Resolver
	Cache        *accounts.Cache
	Target       repay.Target
	Namer        repay.TokenNamer
	Feedback     *Feedback
	// Collateral preselects a collateral reserve by identifier.
	Collateral string
	// Load, when set, runs once at start-up and the panel re-reads the cache
	// once it returns.
	Load func(context.Context) error
}

// Model is the bubbletea model of the repay panel.
type Model struct {
	ctx      context.Context
	orch     *repay.Orchestrator
	resolver *repay.Resolver
	cache    *accounts.Cache
	target   repay.Target
	namer    repay.TokenNamer
	feedback *Feedback
	load     func(context.Context) error

	collateral string
	selector   *repay.Selector
	amount     textinput.Model
	spin       spinner.Model
	focus      field
	loading    bool
	width      int
	sub        *repay.Submission
}

// New builds a panel focused on the amount field.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	feedback := opts.Feedback
	if feedback == nil {
		feedback = NewFeedback()
	}
	orch := opts.Orchestrator
	if orch == nil {
		orch = repay.New(repay.Config{Notifier: feedback})
	}

	amount := textinput.New()
	amount.Prompt = ""
	amount.Placeholder = "0.00"
	amount.CharLimit = 32
	amount.Width = 20
	amount.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = accentStyle

	m := Model{
		ctx:      ctx,
		orch:     orch,
		resolver: opts.Resolver,
		cache:    opts.Cache,
		target:   opts.Target,
		namer:    opts.Namer,
		feedback: feedback,
		load:     opts.Load,
		amount:   amount,
		spin:     spin,
		loading:  opts.Load != nil,

		collateral: opts.Collateral,
	}
	m.refresh()
	return m
}

// Init starts the account load, if any.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadCmd(m.ctx, m.load))
}

// refresh re-reads the cache after accounts change. The collateral selection
// survives; before the first selector exists the preselected reserve is used.
func (m *Model) refresh() {
	if reserve, ok := m.resolver.RepayReserve(m.target); ok {
		selected := m.collateral
		if m.selector != nil {
			selected = m.selector.Selected()
		}
		m.selector = repay.NewSelector(m.cache, reserve, m.namer)
		m.selector.Select(selected)
	}
	m.orch.Input().SetBorrowAmount(m.resolver.Debt(m.target))
	m.syncText()
}

func (m Model) request() repay.Request {
	return m.resolver.Request(m.target, m.selector)
}

// syncText copies the controller's text into the field after the slider or
// a confirmation changed it.
func (m *Model) syncText() {
	text := m.orch.Input().Text()
	if m.amount.Value() != text {
		m.amount.SetValue(text)
		m.amount.CursorEnd()
	}
}

func (m *Model) setFocus(f field) {
	m.focus = (f + fieldCount) % fieldCount
	if m.focus == fieldAmount {
		m.amount.Focus()
	} else {
		m.amount.Blur()
	}
}

func (m *Model) cycleCollateral(delta int) {
	if m.selector == nil {
		return
	}
	options := m.selector.Options()
	if len(options) == 0 {
		return
	}
	current := -1
	for i, option := range options {
		if option.Reserve.Address == m.selector.Selected() {
			current = i
			break
		}
	}
	next := current + delta
	if current < 0 {
		next = 0
		if delta < 0 {
			next = len(options) - 1
		}
	}
	next = (next%len(options) + len(options)) % len(options)
	m.selector.Select(options[next].Reserve.Address)
}

// trigger starts a repayment. Unmet preconditions do nothing.
func (m *Model) trigger() tea.Cmd {
	req := m.request()
	if !m.orch.CanTrigger(req) {
		return nil
	}
	sub, err := m.orch.Prepare(req)
	if err != nil {
		return nil
	}
	m.sub = sub
	return tea.Batch(submitCmd(m.ctx, m.orch, sub), m.spin.Tick)
}
