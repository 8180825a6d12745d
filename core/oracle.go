package core

import (
	"context"

	"github.com/holiman/uint256"
)

// PriceOracle per-market underlying price source.
//
// UnderlyingPrice follows the comptroller convention: the quote is scaled
// such that borrowBalance * price / 1e18 yields an 18-decimal USD value
// whatever the underlying's own decimals are.
type PriceOracle interface {
	UnderlyingPrice(ctx context.Context, market Market) (*uint256.Int, error)
}

// PriceFeed collateral price source. Price is 18-decimal USD per whole
// collateral token.
type PriceFeed interface {
	// ID stable feed identity, recorded in feed-update events
	ID() string
	// QuotedAsset the asset this feed quotes
	QuotedAsset(ctx context.Context) (string, error)
	// Price current quote
	Price(ctx context.Context) (*uint256.Int, error)
}
