package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nhbrepay/native/lending"
	"nhbrepay/state/accounts"
)

// ErrNoTarget is returned when neither an obligation nor a reserve is given.
var ErrNoTarget = errors.New("lending: obligation or reserve required")

// LoadRecorder receives loader counters.
type LoadRecorder interface {
	RecordLoaded(kind string, n int)
	RecordFailure(kind string)
}

// LoadTarget names the accounts the loader starts from.
type LoadTarget struct {
	Obligation string
	Reserve    string
	Owner      string
}

// Loader pulls the accounts a repay panel needs from the node into the cache.
type Loader struct {
	engine   Engine
	cache    *accounts.Cache
	logger   *slog.Logger
	recorder LoadRecorder
}

// NewLoader constructs a Loader. recorder may be nil.
func NewLoader(engine Engine, cache *accounts.Cache, logger *slog.Logger, recorder LoadRecorder) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{engine: engine, cache: cache, logger: logger, recorder: recorder}
}

// Load fetches, in order, the obligation, its borrow reserve (or the target
// reserve), the lending market, every reserve of that market, the borrowed
// liquidity mint and the owner's token accounts. The obligation, repay reserve
// and mint are required; the rest is best effort.
func (l *Loader) Load(ctx context.Context, target LoadTarget) error {
	if l == nil || l.engine == nil || l.cache == nil {
		return fmt.Errorf("loader not initialised")
	}
	reserveID := strings.TrimSpace(target.Reserve)
	if id := strings.TrimSpace(target.Obligation); id != "" {
		raw, err := l.engine.GetObligation(ctx, id)
		if err != nil {
			l.fail(lending.KindObligation)
			return fmt.Errorf("load obligation %s: %w", id, err)
		}
		parsed, err := l.add(id, lending.KindObligation, raw)
		if err != nil {
			return err
		}
		reserveID = parsed.(*lending.Obligation).BorrowReserve
	}
	if reserveID == "" {
		return ErrNoTarget
	}

	raw, err := l.engine.GetReserve(ctx, reserveID)
	if err != nil {
		l.fail(lending.KindReserve)
		return fmt.Errorf("load reserve %s: %w", reserveID, err)
	}
	parsed, err := l.add(reserveID, lending.KindReserve, raw)
	if err != nil {
		return err
	}
	reserve := parsed.(*lending.Reserve)

	raw, err = l.engine.GetMint(ctx, reserve.LiquidityMint)
	if err != nil {
		l.fail(lending.KindMint)
		return fmt.Errorf("load mint %s: %w", reserve.LiquidityMint, err)
	}
	if _, err := l.add(reserve.LiquidityMint, lending.KindMint, raw); err != nil {
		return err
	}

	if raw, err := l.engine.GetLendingMarket(ctx, reserve.LendingMarket); err != nil {
		l.fail(lending.KindLendingMarket)
		l.logger.Warn("lending market unavailable", "market", reserve.LendingMarket, "error", err)
	} else if _, err := l.add(reserve.LendingMarket, lending.KindLendingMarket, raw); err != nil {
		l.logger.Warn("lending market unreadable", "market", reserve.LendingMarket, "error", err)
	}

	if list, err := l.engine.ListReserves(ctx, reserve.LendingMarket); err != nil {
		l.fail(lending.KindReserve)
		l.logger.Warn("market reserves unavailable", "market", reserve.LendingMarket, "error", err)
	} else {
		l.addAll(lending.KindReserve, list)
	}

	if owner := strings.TrimSpace(target.Owner); owner != "" {
		if list, err := l.engine.ListTokenAccounts(ctx, owner); err != nil {
			l.fail(lending.KindTokenAccount)
			l.logger.Warn("wallet token accounts unavailable", "owner", owner, "error", err)
		} else {
			l.addAll(lending.KindTokenAccount, list)
		}
	}
	l.logger.Info("repay accounts loaded", "obligation", target.Obligation, "reserve", reserveID, "cached", l.cache.Len())
	return nil
}

func (l *Loader) add(id, kind string, raw json.RawMessage) (any, error) {
	account, err := l.cache.Add(id, kind, raw)
	if err != nil && account == nil {
		l.fail(kind)
		return nil, err
	}
	if err != nil {
		l.logger.Warn("account snapshot not persisted", "kind", kind, "id", id, "error", err)
	}
	if l.recorder != nil {
		l.recorder.RecordLoaded(kind, 1)
	}
	return account.Info, nil
}

func (l *Loader) addAll(kind string, list []json.RawMessage) {
	for _, raw := range list {
		id, err := lending.AddressOf(raw)
		if err != nil {
			l.fail(kind)
			l.logger.Warn("skipping account without address", "kind", kind, "error", err)
			continue
		}
		if _, err := l.add(id, kind, raw); err != nil {
			l.logger.Warn("skipping unreadable account", "kind", kind, "id", id, "error", err)
		}
	}
}

func (l *Loader) fail(kind string) {
	if l.recorder != nil {
		l.recorder.RecordFailure(kind)
	}
}
