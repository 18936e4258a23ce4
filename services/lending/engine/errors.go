package engine

import "errors"

var (
	ErrNotFound               = errors.New("lending: not found")
	ErrInsufficientCollateral = errors.New("lending: insufficient collateral")
	ErrPaused                 = errors.New("lending: operation paused")
	ErrInvalidAmount          = errors.New("lending: invalid amount")
	ErrInvalidAddress         = errors.New("lending: invalid address")
	ErrUnauthorized           = errors.New("lending: unauthorized")
	ErrInternal               = errors.New("lending: internal error")
	ErrUnavailable            = errors.New("lending: node unavailable")
)
