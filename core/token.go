package core

import (
	"context"

	"github.com/holiman/uint256"
)

// Token fungible token collaborator. Amounts are in base units of the
// token's own decimals.
type Token interface {
	// AssetID token identity
	AssetID() string
	// Decimals base unit decimals
	Decimals(ctx context.Context) (uint8, error)
	// BalanceOf current balance of account
	BalanceOf(ctx context.Context, account string) (*uint256.Int, error)
	// Transfer move amount from one account to another
	Transfer(ctx context.Context, from, to string, amount *uint256.Int) error
	// Approve grant spender an allowance on owner's balance
	Approve(ctx context.Context, owner, spender string, amount *uint256.Int) error
}

// TokenProvider resolves an asset id to a token handle
type TokenProvider interface {
	Token(ctx context.Context, assetID string) (Token, error)
}
