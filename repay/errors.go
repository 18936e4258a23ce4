package repay

import "errors"

var (
	// ErrMalformedAmount marks amount text that is not a complete decimal.
	ErrMalformedAmount = errors.New("repay: malformed amount")
	// ErrNoDebt is returned when the borrow baseline is zero.
	ErrNoDebt = errors.New("repay: no outstanding debt")
	// ErrPrecondition wraps every reason a repay click is ignored.
	ErrPrecondition = errors.New("repay: precondition not met")
	// ErrBusy is returned when a submission is already pending or confirmed.
	ErrBusy = errors.New("repay: submission not idle")
	// ErrNoWallet is surfaced when the wallet handle is missing at submit time.
	ErrNoWallet = errors.New("repay: wallet not connected")
	// ErrNoSubmitter is surfaced when no repay action has been wired.
	ErrNoSubmitter = errors.New("repay: repay action not configured")
	// ErrUnknownSubmission is returned when completing a stale submission.
	ErrUnknownSubmission = errors.New("repay: unknown submission")
)
