package repay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"nhbrepay/native/lending"
)

// State is the lifecycle of one repay submission.
type State int

const (
	// StateIdle accepts a new repay request.
	StateIdle State = iota
	// StatePending waits for the repay action to resolve.
	StatePending
	// StateConfirmed shows the acknowledgement until dismissed.
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	default:
		return "idle"
	}
}

// Wallet is the connected wallet handle passed through to the repay action.
type Wallet interface {
	Address() string
	Sign(payload []byte) ([]byte, error)
}

// Request gathers the accounts a repayment needs. Any of them may be nil
// while the surrounding view is still loading.
type Request struct {
	// Source is the wallet token account the repayment is paid from.
	Source *lending.TokenAccount
	// Obligation is the position being repaid.
	Obligation *lending.Obligation
	// ObligationAccount holds the wallet's obligation tokens.
	ObligationAccount *lending.TokenAccount
	// Reserve is the reserve the debt was borrowed from.
	Reserve *lending.Reserve
	// LiquidityMint carries the precision of the borrowed token.
	LiquidityMint *lending.Mint
	// Collateral is the reserve credited on repayment.
	Collateral *lending.Reserve
}

// Params is what the repay action receives.
type Params struct {
	Source            *lending.TokenAccount
	Amount            *uint256.Int
	Obligation        *lending.Obligation
	ObligationAccount *lending.TokenAccount
	Reserve           *lending.Reserve
	Collateral        *lending.Reserve
}

// Receipt acknowledges an accepted repayment.
type Receipt struct {
	TxHash    string
	RequestID string
}

// Submitter performs the repay action against the network. It is the only
// blocking call in the repay flow.
type Submitter interface {
	SubmitRepay(ctx context.Context, wallet Wallet, params Params) (Receipt, error)
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, wallet Wallet, params Params) (Receipt, error)

// SubmitRepay calls f.
func (f SubmitterFunc) SubmitRepay(ctx context.Context, wallet Wallet, params Params) (Receipt, error) {
	return f(ctx, wallet, params)
}

// Metrics receives the outcome of each repay attempt.
type Metrics interface {
	RecordSkipped(reason string)
	RecordSubmission(outcome string, elapsed time.Duration)
}

// Submission is a repayment that has left Idle and awaits its outcome.
type Submission struct {
	id      uint64
	started time.Time
	// Params is the exact payload handed to the repay action.
	Params Params
	// From is the control the amount was derived from.
	From InputType
}

// Config wires an Orchestrator.
type Config struct {
	Input     *Input
	Submitter Submitter
	Wallet    Wallet
	Notifier  Notifier
	Metrics   Metrics
	Logger    *slog.Logger
}

// Orchestrator turns the amount held by an Input into a submitted repayment
// and owns the submission state. It is driven from a single event loop and is
// not safe for concurrent use; Submit is the one method that may run on
// another goroutine because it touches no state.
type Orchestrator struct {
	input     *Input
	submitter Submitter
	wallet    Wallet
	notifier  Notifier
	metrics   Metrics
	logger    *slog.Logger

	state   State
	current uint64
	receipt Receipt
}

// New constructs an idle orchestrator.
func New(cfg Config) *Orchestrator {
	input := cfg.Input
	if input == nil {
		input = NewInput(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		input:     input,
		submitter: cfg.Submitter,
		wallet:    cfg.Wallet,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Input returns the controller whose amount is submitted.
func (o *Orchestrator) Input() *Input { return o.input }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Pending reports whether a submission is in flight.
func (o *Orchestrator) Pending() bool { return o.state == StatePending }

// Receipt returns the acknowledgement of the last confirmed repayment.
func (o *Orchestrator) Receipt() Receipt { return o.receipt }

// CanTrigger reports whether the repay control should be enabled.
func (o *Orchestrator) CanTrigger(req Request) bool {
	return o.state == StateIdle && req.Source != nil
}

// Prepare checks the preconditions, computes the integer repay amount from the
// authoritative control and moves to Pending. Every returned error wraps
// ErrPrecondition or ErrBusy, leaves the state untouched and must not be shown
// to the user.
func (o *Orchestrator) Prepare(req Request) (*Submission, error) {
	if o.state != StateIdle {
		return nil, fmt.Errorf("%w: state %s", ErrBusy, o.state)
	}
	if reason := missingAccount(req); reason != "" {
		o.skip(reason)
		return nil, fmt.Errorf("%w: %s", ErrPrecondition, reason)
	}
	debt, err := lending.NewDebt(req.Obligation, req.LiquidityMint)
	if err != nil {
		o.skip("debt")
		return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	amount, err := ComputeAmount(o.input, debt)
	if err != nil {
		o.skip("amount")
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if amount.IsZero() {
		o.skip("amount")
		return nil, fmt.Errorf("%w: repay amount is zero", ErrPrecondition)
	}

	o.current++
	o.state = StatePending
	sub := &Submission{
		id:      o.current,
		started: time.Now(),
		From:    o.input.LastEdited(),
		Params: Params{
			Source:            req.Source,
			Amount:            amount,
			Obligation:        req.Obligation,
			ObligationAccount: req.ObligationAccount,
			Reserve:           req.Reserve,
			Collateral:        req.Collateral,
		},
	}
	o.logger.Info("repay submission prepared",
		"obligation", req.Obligation.Address,
		"reserve", req.Reserve.Address,
		"collateral", req.Collateral.Address,
		"amount", amount.Dec(),
		"input", sub.From.String(),
	)
	return sub, nil
}

// Submit invokes the repay action for sub. It does not change state and may
// run off the event loop; pass its result to Complete.
func (o *Orchestrator) Submit(ctx context.Context, sub *Submission) (Receipt, error) {
	if sub == nil {
		return Receipt{}, ErrUnknownSubmission
	}
	if o.submitter == nil {
		return Receipt{}, ErrNoSubmitter
	}
	if o.wallet == nil {
		return Receipt{}, ErrNoWallet
	}
	return o.submitter.SubmitRepay(ctx, o.wallet, sub.Params)
}

// Complete resolves sub. On success the amount field is cleared and the state
// becomes Confirmed; on failure one error notification is issued, the amount
// is kept for a retry and the state returns to Idle.
func (o *Orchestrator) Complete(sub *Submission, receipt Receipt, err error) error {
	if sub == nil || o.state != StatePending || sub.id != o.current {
		return ErrUnknownSubmission
	}
	elapsed := time.Since(sub.started)
	if err != nil {
		o.state = StateIdle
		o.notify(Notification{
			Message:     "Unable to repay loan.",
			Kind:        KindError,
			Description: err.Error(),
		})
		o.record("failed", elapsed)
		o.logger.Error("repay submission failed", "error", err, "elapsed", elapsed)
		return nil
	}
	o.input.Clear()
	o.receipt = receipt
	o.state = StateConfirmed
	o.record("confirmed", elapsed)
	o.logger.Info("repay submission confirmed", "tx_hash", receipt.TxHash, "request_id", receipt.RequestID, "elapsed", elapsed)
	return nil
}

// Repay runs Prepare, Submit and Complete back to back for callers without
// an event loop. Precondition failures are returned without side effects;
// submission failures are returned after the error notification.
func (o *Orchestrator) Repay(ctx context.Context, req Request) (Receipt, error) {
	sub, err := o.Prepare(req)
	if err != nil {
		return Receipt{}, err
	}
	receipt, submitErr := o.Submit(ctx, sub)
	if err := o.Complete(sub, receipt, submitErr); err != nil {
		return Receipt{}, err
	}
	if submitErr != nil {
		return Receipt{}, submitErr
	}
	return receipt, nil
}

// Dismiss closes the confirmation so a new repay cycle can start.
func (o *Orchestrator) Dismiss() {
	if o.state != StateConfirmed {
		return
	}
	o.state = StateIdle
	o.receipt = Receipt{}
}

// ComputeAmount converts the authoritative representation held by in into
// integer token units of debt. Slider amounts round down so the percentage is
// never exceeded; typed amounts round up so the requested amount is fully
// covered. The result never exceeds the outstanding debt.
func ComputeAmount(in *Input, debt lending.Debt) (*uint256.Int, error) {
	if in == nil {
		return nil, ErrMalformedAmount
	}
	if debt.IsZero() {
		return nil, ErrNoDebt
	}
	lamports := new(big.Rat).SetInt(debt.Lamports.ToBig())

	var amount *uint256.Int
	switch in.LastEdited() {
	case InputSlider:
		share := new(big.Rat).SetFloat64(clampPercentage(in.Percentage()))
		if share == nil {
			return nil, ErrMalformedAmount
		}
		share.Mul(share, lamports)
		share.Quo(share, big.NewRat(100, 1))
		amount = lending.FloorRat(share)
	default:
		typed, err := parseDecimalRat(in.Text())
		if err != nil {
			return nil, err
		}
		human := debt.Human()
		ratio := new(big.Rat).Quo(typed, human)
		amount = lending.CeilRat(ratio.Mul(ratio, lamports))
	}
	if amount.Cmp(debt.Lamports) > 0 {
		amount = new(uint256.Int).Set(debt.Lamports)
	}
	return amount, nil
}

func missingAccount(req Request) string {
	switch {
	case req.Collateral == nil:
		return "collateral reserve"
	case req.Obligation == nil:
		return "obligation"
	case req.Reserve == nil:
		return "repay reserve"
	case req.ObligationAccount == nil:
		return "obligation token account"
	case req.Source == nil:
		return "source token account"
	case req.LiquidityMint == nil:
		return "liquidity mint"
	default:
		return ""
	}
}

func (o *Orchestrator) notify(n Notification) {
	if o.notifier != nil {
		o.notifier.Notify(n)
	}
}

func (o *Orchestrator) skip(reason string) {
	if o.metrics != nil {
		o.metrics.RecordSkipped(reason)
	}
	o.logger.Debug("repay click ignored", "reason", reason)
}

func (o *Orchestrator) record(outcome string, elapsed time.Duration) {
	if o.metrics != nil {
		o.metrics.RecordSubmission(outcome, elapsed)
	}
}

// IsSilent reports whether err is a precondition outcome that must not be
// surfaced to the user.
func IsSilent(err error) bool {
	return errors.Is(err, ErrPrecondition) || errors.Is(err, ErrBusy)
}
