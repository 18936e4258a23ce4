package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	telemetry "nhbrepay/observability/otel"
	"nhbrepay/repay"
	sdklending "nhbrepay/sdk/lending"
)

var errIncompleteParams = errors.New("lending: repay accounts incomplete")

// RepaySubmitter signs repay instructions with the connected wallet and
// submits them through an Engine.
type RepaySubmitter struct {
	engine Engine
	tracer trace.Tracer
	logger *slog.Logger
}

// NewRepaySubmitter returns a repay.Submitter backed by engine.
func NewRepaySubmitter(engine Engine, logger *slog.Logger) *RepaySubmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepaySubmitter{engine: engine, tracer: telemetry.Tracer("lending"), logger: logger}
}

// SubmitRepay implements repay.Submitter.
func (s *RepaySubmitter) SubmitRepay(ctx context.Context, wallet repay.Wallet, params repay.Params) (receipt repay.Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "lending.repay")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if wallet == nil {
		return repay.Receipt{}, repay.ErrNoWallet
	}
	if s.engine == nil {
		return repay.Receipt{}, repay.ErrNoSubmitter
	}
	if params.Source == nil || params.Obligation == nil || params.ObligationAccount == nil ||
		params.Reserve == nil || params.Collateral == nil || params.Amount == nil {
		return repay.Receipt{}, errIncompleteParams
	}
	span.SetAttributes(
		attribute.String("lending.obligation", params.Obligation.Address),
		attribute.String("lending.reserve", params.Reserve.Address),
		attribute.String("lending.collateral_reserve", params.Collateral.Address),
		attribute.String("lending.amount", params.Amount.Dec()),
	)

	msg, err := sdklending.NewMsgRepay(wallet.Address(), sdklending.RepayAccounts{
		Source:            params.Source.Address,
		Obligation:        params.Obligation.Address,
		ObligationAccount: params.ObligationAccount.Address,
		Reserve:           params.Reserve.Address,
		CollateralReserve: params.Collateral.Address,
	}, params.Amount.Dec())
	if err != nil {
		return repay.Receipt{}, fmt.Errorf("build repay: %w", err)
	}
	span.SetAttributes(attribute.String("lending.request_id", msg.RequestID))

	signed, err := msg.Sign(wallet)
	if err != nil {
		return repay.Receipt{}, err
	}
	result, err := s.engine.Repay(ctx, signed)
	if err != nil {
		s.logger.Warn("repay rejected", "request_id", msg.RequestID, "error", err)
		return repay.Receipt{}, err
	}
	return repay.Receipt{TxHash: result.TxHash, RequestID: result.RequestID}, nil
}
