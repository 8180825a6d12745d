package core

import (
	"context"

	"github.com/holiman/uint256"
)

// Agreement identity and risk parameters of a credit line. Everything here
// is fixed at creation; the only mutable pieces of an agreement (collateral
// cap, price feed, converter bindings, pause flag) live in the agreement
// service and change exclusively through its administrative operations.
type Agreement struct {
	// Borrower may borrow, repay and withdraw
	Borrower string `json:"borrower"`
	// Executor may liquidate, seize, bind converters and pause
	Executor string `json:"executor"`
	// Governor may update the collateral cap and the price feed
	Governor string `json:"governor"`
	// Account the identity holding the agreement's token balances
	Account string `json:"account"`

	// CollateralFactor max borrowable fraction of the collateral value, 1e18 scaled
	CollateralFactor *uint256.Int `json:"collateral_factor"`
	// LiquidationFactor fraction of the collateral value above which the
	// position is liquidatable, always >= CollateralFactor
	LiquidationFactor *uint256.Int `json:"liquidation_factor"`
	// CloseFactor max fraction of collateral consumed by one liquidation
	CloseFactor *uint256.Int `json:"close_factor"`
}

// Validate check the factor invariants: 0 < cf <= lf <= 1e18, 0 < close <= 1e18
func (a *Agreement) Validate() error {
	one := uint256.NewInt(1e18)

	if a.Borrower == "" || a.Executor == "" || a.Governor == "" || a.Account == "" {
		return Errorf(ErrUnknown, "agreement principal unset")
	}

	if a.CollateralFactor == nil || a.CollateralFactor.IsZero() ||
		a.LiquidationFactor == nil || a.CollateralFactor.Gt(a.LiquidationFactor) ||
		a.LiquidationFactor.Gt(one) {
		return Errorf(ErrInvalidAmount, "want 0 < collateral factor <= liquidation factor <= 1e18")
	}

	if a.CloseFactor == nil || a.CloseFactor.IsZero() || a.CloseFactor.Gt(one) {
		return Errorf(ErrInvalidAmount, "want 0 < close factor <= 1e18")
	}

	return nil
}

// Position derived state of the agreement, recomputed live on every query
type Position struct {
	Collateral           *uint256.Int `json:"collateral"`
	EffectiveCollateral  *uint256.Int `json:"effective_collateral"`
	CollateralValue      *uint256.Int `json:"collateral_value"`
	Debt                 *uint256.Int `json:"debt"`
	MaxBorrow            *uint256.Int `json:"max_borrow"`
	LiquidationThreshold *uint256.Int `json:"liquidation_threshold"`
	MaxLiquidatable      *uint256.Int `json:"max_liquidatable"`
	Paused               bool         `json:"paused"`
}

// LiquidationResult outcome of one liquidation call
type LiquidationResult struct {
	MarketID     string       `json:"market_id"`
	CollateralIn *uint256.Int `json:"collateral_in"`
	Repaid       *uint256.Int `json:"repaid"`
}

// IAgreementService the credit line core. Callers are identified by the
// principal string the transport layer authenticated.
type IAgreementService interface {
	// Position derive the current position, valuations fresh
	Position(ctx context.Context) (*Position, error)
	// DebtValue current aggregate debt in 18-decimal USD
	DebtValue(ctx context.Context) (*uint256.Int, error)
	// Paused circuit breaker state
	Paused() bool

	// Borrow draw amount from market and forward it to the borrower
	Borrow(ctx context.Context, caller, marketID string, amount *uint256.Int) error
	// BorrowMax draw the largest amount current prices allow
	BorrowMax(ctx context.Context, caller, marketID string) (*uint256.Int, error)
	// Repay pull amount of the market's underlying from the caller and repay
	Repay(ctx context.Context, caller, marketID string, amount *uint256.Int) error
	// RepayFull repay the live borrow balance including accrued interest
	RepayFull(ctx context.Context, caller, marketID string) (*uint256.Int, error)
	// Withdraw move collateral back to the borrower, solvency preserved
	Withdraw(ctx context.Context, caller string, amount *uint256.Int) error
	// Seize sweep a non-collateral token mistakenly sent to the agreement
	Seize(ctx context.Context, caller, assetID string, amount *uint256.Int) error

	// LiquidateExactCollateralIn consume exactly collateralAmount, repay at least minRepay
	LiquidateExactCollateralIn(ctx context.Context, caller, marketID string, collateralAmount, minRepay *uint256.Int) (*LiquidationResult, error)
	// LiquidateExactDebtOut repay exactly repayAmount, consume at most maxCollateralIn
	LiquidateExactDebtOut(ctx context.Context, caller, marketID string, repayAmount, maxCollateralIn *uint256.Int) (*LiquidationResult, error)

	// SetConverter bind converters to markets, replacing prior bindings
	SetConverter(ctx context.Context, caller string, marketIDs []string, converters []Converter) error
	// SetCollateralCap update the cap counted toward valuation, 0 = uncapped
	SetCollateralCap(ctx context.Context, caller string, cap *uint256.Int) error
	// SetPriceFeed swap the collateral price feed
	SetPriceFeed(ctx context.Context, caller string, feed PriceFeed) error
	// Pause block borrows, and withdrawals while debt is outstanding
	Pause(ctx context.Context, caller string) error
	// Unpause release the circuit breaker
	Unpause(ctx context.Context, caller string) error
}
