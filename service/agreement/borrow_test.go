package agreement

import (
	"context"
	"errors"
	"testing"

	"creditline/core"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	position, err := f.svc.Position(ctx)
	require.NoError(t, err)

	assert.Equal(t, e18(1000), position.Collateral)
	assert.Equal(t, e18(1000), position.EffectiveCollateral)
	assert.Equal(t, e18(1000), position.CollateralValue)
	assert.True(t, position.Debt.IsZero())
	assert.Equal(t, e18(800), position.MaxBorrow)
	assert.Equal(t, e18(900), position.LiquidationThreshold)
	assert.Equal(t, e18(500), position.MaxLiquidatable)
	assert.False(t, position.Paused)
}

func TestBorrow(t *testing.T) {
	ctx := context.Background()

	t.Run("over capacity", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Borrow(ctx, testBorrower, "m1", e18(801))
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrUndercollateralized))
		assert.True(t, f.usdx.balance(testBorrower).IsZero())
	})

	t.Run("at capacity", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(800)))

		assert.Equal(t, e18(800), f.usdx.balance(testBorrower))
		assert.Equal(t, e18(800), f.market.borrowBalance)

		debt, err := f.svc.DebtValue(ctx)
		require.NoError(t, err)
		assert.Equal(t, e18(800), debt)

		events := f.events.byType(core.EventTypeBorrow)
		require.Len(t, events, 1)
		assert.Equal(t, "m1", events[0].MarketID)
		assert.Equal(t, e18(800).Dec(), events[0].Amount)
	})

	t.Run("wrong principal", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Borrow(ctx, testExecutor, "m1", e18(1))
		assert.True(t, errors.Is(err, core.ErrOperationForbidden))
	})

	t.Run("zero amount", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Borrow(ctx, testBorrower, "m1", uint256.NewInt(0))
		assert.True(t, errors.Is(err, core.ErrInvalidAmount))
	})

	t.Run("unknown market", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Borrow(ctx, testBorrower, "m9", e18(1))
		assert.True(t, errors.Is(err, core.ErrMarketNotFound))
	})

	t.Run("market result code", func(t *testing.T) {
		f := newFixture(t)
		f.market.borrowCode = 3
		err := f.svc.Borrow(ctx, testBorrower, "m1", e18(1))
		assert.True(t, errors.Is(err, core.ErrMarketBorrowFailed))
	})

	t.Run("paused", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Pause(ctx, testExecutor))
		err := f.svc.Borrow(ctx, testBorrower, "m1", e18(1))
		assert.True(t, errors.Is(err, core.ErrPaused))
	})
}

func TestBorrowMax(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	amount, err := f.svc.BorrowMax(ctx, testBorrower, "m1")
	require.NoError(t, err)
	assert.Equal(t, e18(800), amount)
	assert.Equal(t, e18(800), f.usdx.balance(testBorrower))

	// debt is already at capacity, no headroom left
	_, err = f.svc.BorrowMax(ctx, testBorrower, "m1")
	assert.True(t, errors.Is(err, core.ErrUndercollateralized))
}

func TestBorrowMaxPaused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Pause(ctx, testExecutor))
	_, err := f.svc.BorrowMax(ctx, testBorrower, "m1")
	assert.True(t, errors.Is(err, core.ErrPaused))
}

func TestRepay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(500)))
	require.NoError(t, f.svc.Repay(ctx, testBorrower, "m1", e18(200)))

	assert.Equal(t, e18(300), f.market.borrowBalance)
	assert.Equal(t, e18(300), f.usdx.balance(testBorrower))
	require.Len(t, f.events.byType(core.EventTypeRepay), 1)
}

func TestRepayWithoutFunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(100)))

	// the borrower holds 100, pulling 200 must fail before any repayment
	err := f.svc.Repay(ctx, testBorrower, "m1", e18(200))
	assert.True(t, errors.Is(err, core.ErrExternalCall))
	assert.Equal(t, e18(100), f.market.borrowBalance)
}

func TestRepayFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(500)))

	// accrued interest since the draw
	f.market.borrowBalance = e18(510)
	f.usdx.balances[testBorrower] = e18(510)

	repaid, err := f.svc.RepayFull(ctx, testBorrower, "m1")
	require.NoError(t, err)
	assert.Equal(t, e18(510), repaid)
	assert.True(t, f.market.borrowBalance.IsZero())

	debt, err := f.svc.DebtValue(ctx)
	require.NoError(t, err)
	assert.True(t, debt.IsZero())

	// nothing outstanding, nothing pulled
	repaid, err = f.svc.RepayFull(ctx, testBorrower, "m1")
	require.NoError(t, err)
	assert.True(t, repaid.IsZero())
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("debt free", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Withdraw(ctx, testBorrower, e18(1000)))
		assert.Equal(t, e18(1000), f.collateral.balance(testBorrower))
		assert.True(t, f.collateral.balance(testAccount).IsZero())
	})

	t.Run("debt free while paused", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Pause(ctx, testExecutor))
		require.NoError(t, f.svc.Withdraw(ctx, testBorrower, e18(1000)))
	})

	t.Run("over balance", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Withdraw(ctx, testBorrower, e18(1001))
		assert.True(t, errors.Is(err, core.ErrInsufficientCollateral))
	})

	t.Run("solvent after withdraw", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(400)))

		// 500 remaining * 0.8 = 400 capacity, exactly covers the debt
		require.NoError(t, f.svc.Withdraw(ctx, testBorrower, e18(500)))
	})

	t.Run("insolvent after withdraw", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(400)))

		err := f.svc.Withdraw(ctx, testBorrower, e18(501))
		assert.True(t, errors.Is(err, core.ErrUndercollateralized))
		assert.Equal(t, e18(1000), f.collateral.balance(testAccount))
	})

	t.Run("paused with debt", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(400)))
		require.NoError(t, f.svc.Pause(ctx, testExecutor))

		err := f.svc.Withdraw(ctx, testBorrower, e18(1))
		assert.True(t, errors.Is(err, core.ErrPaused))
	})
}

func TestSeize(t *testing.T) {
	ctx := context.Background()

	t.Run("stray token", func(t *testing.T) {
		f := newFixture(t)
		f.usdx.balances[testAccount] = e18(5)

		require.NoError(t, f.svc.Seize(ctx, testExecutor, "usdx", e18(5)))
		assert.Equal(t, e18(5), f.usdx.balance(testExecutor))
		require.Len(t, f.events.byType(core.EventTypeSeize), 1)
	})

	t.Run("collateral forbidden", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Seize(ctx, testExecutor, "coll", e18(1))
		assert.True(t, errors.Is(err, core.ErrCollateralSeizeForbidden))
	})

	t.Run("wrong principal", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Seize(ctx, testBorrower, "usdx", e18(1))
		assert.True(t, errors.Is(err, core.ErrOperationForbidden))
	})
}

func TestGuardReleasedAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.Error(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(801)))
	require.NoError(t, f.svc.Borrow(ctx, testBorrower, "m1", e18(800)))
}

func TestReentrancyRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	conv := f.bindConverter(e18(1))
	f.market.borrowBalance = e18(950)

	var inner error
	conv.onConvert = func() {
		inner = f.svc.Withdraw(ctx, testBorrower, e18(1))
	}

	_, err := f.svc.LiquidateExactCollateralIn(ctx, testExecutor, "m1", e18(100), uint256.NewInt(0))
	require.NoError(t, err)

	require.Error(t, inner)
	assert.True(t, errors.Is(inner, core.ErrReentrant))
}
