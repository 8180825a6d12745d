package core

import (
	"context"

	"github.com/holiman/uint256"
)

// Converter swap adapter exchanging the collateral token for a market's
// underlying debt token. Used only during liquidation.
type Converter interface {
	// ID stable converter identity, used as the allowance spender and in
	// binding-update events
	ID() string
	// SourceAsset the token the converter consumes
	SourceAsset(ctx context.Context) (string, error)
	// DestinationAsset the token the converter produces
	DestinationAsset(ctx context.Context) (string, error)
	// ConvertExactIn swap exactly amountIn, require at least minAmountOut,
	// return the realized output
	ConvertExactIn(ctx context.Context, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error)
	// ConvertExactOut swap up to maxAmountIn for exactly amountOut, return
	// the realized input
	ConvertExactOut(ctx context.Context, amountOut, maxAmountIn *uint256.Int) (*uint256.Int, error)
	// QuoteAmountIn input implied by an exact output at current prices
	QuoteAmountIn(ctx context.Context, amountOut *uint256.Int) (*uint256.Int, error)
}
