package core

import (
	"context"

	"github.com/holiman/uint256"
)

// AccountSnapshot point-in-time account state reported by a market
type AccountSnapshot struct {
	TokenBalance  *uint256.Int `json:"token_balance"`
	BorrowBalance *uint256.Int `json:"borrow_balance"`
	ExchangeRate  *uint256.Int `json:"exchange_rate"`
}

// Market external lending pool collaborator. Borrow and RepayBorrow act on
// behalf of the agreement account the client was built for and report a
// result code, 0 meaning success.
type Market interface {
	// ID market identity
	ID() string
	// Underlying the market's debt token
	Underlying(ctx context.Context) (Token, error)
	// Borrow draw amount of the underlying from the pool
	Borrow(ctx context.Context, amount *uint256.Int) (uint64, error)
	// RepayBorrow pay amount of the underlying back to the pool
	RepayBorrow(ctx context.Context, amount *uint256.Int) (uint64, error)
	// BorrowBalanceCurrent live borrow balance including interest accrued
	// up to the instant of the call
	BorrowBalanceCurrent(ctx context.Context, account string) (*uint256.Int, error)
	// AccountSnapshot stored account state without accruing interest
	AccountSnapshot(ctx context.Context, account string) (*AccountSnapshot, error)
}

// Comptroller market registry collaborator
type Comptroller interface {
	// Oracle the price oracle shared by all markets
	Oracle(ctx context.Context) (PriceOracle, error)
	// MarketsEnteredBy every market account has ever borrowed from
	MarketsEnteredBy(ctx context.Context, account string) ([]Market, error)
	// Market resolve a market by id
	Market(ctx context.Context, id string) (Market, error)
}
