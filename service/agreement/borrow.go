package agreement

import (
	"context"

	"creditline/core"
	"creditline/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Borrow draw amount of market's underlying and forward it to the borrower
func (s *service) Borrow(ctx context.Context, caller, marketID string, amount *uint256.Int) error {
	if err := s.requirePrincipal(caller, s.agreement.Borrower); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	return s.borrowLocked(ctx, marketID, amount)
}

// BorrowMax draw the largest additional amount current prices allow
func (s *service) BorrowMax(ctx context.Context, caller, marketID string) (*uint256.Int, error) {
	if err := s.requirePrincipal(caller, s.agreement.Borrower); err != nil {
		return nil, err
	}

	if err := s.guard.enter(); err != nil {
		return nil, err
	}
	defer s.guard.exit()

	if s.Paused() {
		return nil, core.Errorf(core.ErrPaused, "borrow blocked")
	}

	market, err := s.market(ctx, marketID)
	if err != nil {
		return nil, err
	}

	capacity, err := s.maxBorrowValue(ctx, nil)
	if err != nil {
		return nil, err
	}

	oracle, err := s.comptroller.Oracle(ctx)
	if err != nil {
		return nil, core.Errorf(core.ErrExternalCall, "comptroller.Oracle: %v", err)
	}

	price, err := oracle.UnderlyingPrice(ctx, market)
	if err != nil {
		return nil, core.Errorf(core.ErrExternalCall, "market %s UnderlyingPrice: %v", marketID, err)
	}

	// theoretical max borrow balance at current prices, minus what is
	// already outstanding
	maxBalance, err := number.DivWad(capacity, price)
	if err != nil {
		return nil, wrapNumber(err)
	}

	current, err := market.BorrowBalanceCurrent(ctx, s.agreement.Account)
	if err != nil {
		return nil, core.Errorf(core.ErrExternalCall, "market %s BorrowBalanceCurrent: %v", marketID, err)
	}

	if !maxBalance.Gt(current) {
		return nil, core.Errorf(core.ErrUndercollateralized, "no borrow headroom at current prices")
	}

	amount := new(uint256.Int).Sub(maxBalance, current)
	if err := s.borrowLocked(ctx, marketID, amount); err != nil {
		return nil, err
	}

	return amount, nil
}

func (s *service) borrowLocked(ctx context.Context, marketID string, amount *uint256.Int) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation": "borrow",
		"market":    marketID,
	})
	ctx = logger.WithContext(ctx, log)

	if s.Paused() {
		return core.Errorf(core.ErrPaused, "borrow blocked")
	}

	if err := requireAmount(amount); err != nil {
		return err
	}

	market, err := s.market(ctx, marketID)
	if err != nil {
		return err
	}

	debt, err := s.debtValue(ctx, marketID, amount)
	if err != nil {
		return err
	}

	capacity, err := s.maxBorrowValue(ctx, nil)
	if err != nil {
		return err
	}

	if debt.Gt(capacity) {
		log.Infoln("borrow denied: debt", debt.Dec(), "capacity", capacity.Dec())
		return core.Errorf(core.ErrUndercollateralized, "debt %s would exceed capacity %s", debt.Dec(), capacity.Dec())
	}

	code, err := market.Borrow(ctx, amount)
	if err != nil {
		log.WithError(err).Errorln("market.Borrow")
		return core.Errorf(core.ErrExternalCall, "market %s Borrow: %v", marketID, err)
	}

	if code != 0 {
		return core.Errorf(core.ErrMarketBorrowFailed, "market %s result code %d", marketID, code)
	}

	underlying, err := market.Underlying(ctx)
	if err != nil {
		log.WithError(err).Errorln("market.Underlying")
		return core.Errorf(core.ErrExternalCall, "market %s Underlying: %v", marketID, err)
	}

	if err := underlying.Transfer(ctx, s.agreement.Account, s.agreement.Borrower, amount); err != nil {
		log.WithError(err).Errorln("underlying.Transfer")
		return core.Errorf(core.ErrExternalCall, "transfer to borrower: %v", err)
	}

	s.emit(ctx, &core.Event{
		Type:     core.EventTypeBorrow,
		MarketID: marketID,
		AssetID:  underlying.AssetID(),
		Amount:   amount.Dec(),
	})

	return nil
}

// Repay pull amount of the market's underlying from the caller and repay
func (s *service) Repay(ctx context.Context, caller, marketID string, amount *uint256.Int) error {
	if err := s.requirePrincipal(caller, s.agreement.Borrower); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	if err := requireAmount(amount); err != nil {
		return err
	}

	market, err := s.market(ctx, marketID)
	if err != nil {
		return err
	}

	return s.pullAndRepay(ctx, market, caller, amount)
}

// RepayFull repay the live borrow balance, freshly accrued interest included
func (s *service) RepayFull(ctx context.Context, caller, marketID string) (*uint256.Int, error) {
	if err := s.requirePrincipal(caller, s.agreement.Borrower); err != nil {
		return nil, err
	}

	if err := s.guard.enter(); err != nil {
		return nil, err
	}
	defer s.guard.exit()

	market, err := s.market(ctx, marketID)
	if err != nil {
		return nil, err
	}

	amount, err := market.BorrowBalanceCurrent(ctx, s.agreement.Account)
	if err != nil {
		return nil, core.Errorf(core.ErrExternalCall, "market %s BorrowBalanceCurrent: %v", marketID, err)
	}

	if amount.IsZero() {
		return amount, nil
	}

	if err := s.pullAndRepay(ctx, market, caller, amount); err != nil {
		return nil, err
	}

	return amount, nil
}

func (s *service) pullAndRepay(ctx context.Context, market core.Market, from string, amount *uint256.Int) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation": "repay",
		"market":    market.ID(),
	})
	ctx = logger.WithContext(ctx, log)

	underlying, err := market.Underlying(ctx)
	if err != nil {
		log.WithError(err).Errorln("market.Underlying")
		return core.Errorf(core.ErrExternalCall, "market %s Underlying: %v", market.ID(), err)
	}

	if err := underlying.Transfer(ctx, from, s.agreement.Account, amount); err != nil {
		log.WithError(err).Errorln("underlying.Transfer")
		return core.Errorf(core.ErrExternalCall, "pull repayment: %v", err)
	}

	if err := s.repayMarket(ctx, market, underlying, amount); err != nil {
		return err
	}

	s.emit(ctx, &core.Event{
		Type:     core.EventTypeRepay,
		MarketID: market.ID(),
		AssetID:  underlying.AssetID(),
		Amount:   amount.Dec(),
	})

	return nil
}

// repayMarket approve and repay, shared with the liquidation settlement
func (s *service) repayMarket(ctx context.Context, market core.Market, underlying core.Token, amount *uint256.Int) error {
	log := logger.FromContext(ctx)

	if err := underlying.Approve(ctx, s.agreement.Account, market.ID(), amount); err != nil {
		log.WithError(err).Errorln("underlying.Approve")
		return core.Errorf(core.ErrExternalCall, "approve market %s: %v", market.ID(), err)
	}

	code, err := market.RepayBorrow(ctx, amount)
	if err != nil {
		log.WithError(err).Errorln("market.RepayBorrow")
		return core.Errorf(core.ErrExternalCall, "market %s RepayBorrow: %v", market.ID(), err)
	}

	if code != 0 {
		return core.Errorf(core.ErrMarketRepayFailed, "market %s result code %d", market.ID(), code)
	}

	return nil
}

// Withdraw move collateral back to the borrower. Debt-free agreements may
// withdraw unconditionally; with outstanding debt the withdrawal must keep
// the position solvent and the circuit breaker must be off.
func (s *service) Withdraw(ctx context.Context, caller string, amount *uint256.Int) error {
	if err := s.requirePrincipal(caller, s.agreement.Borrower); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	log := logger.FromContext(ctx).WithField("operation", "withdraw")
	ctx = logger.WithContext(ctx, log)

	if err := requireAmount(amount); err != nil {
		return err
	}

	balance, err := s.collateralBalance(ctx)
	if err != nil {
		return err
	}

	if amount.Gt(balance) {
		return core.Errorf(core.ErrInsufficientCollateral, "withdraw %s exceeds balance %s", amount.Dec(), balance.Dec())
	}

	debt, err := s.debtValue(ctx, "", nil)
	if err != nil {
		return err
	}

	if !debt.IsZero() {
		if s.Paused() {
			return core.Errorf(core.ErrPaused, "withdraw blocked while debt outstanding")
		}

		capacity, err := s.maxBorrowValue(ctx, amount)
		if err != nil {
			return err
		}

		if debt.Gt(capacity) {
			log.Infoln("withdraw denied: debt", debt.Dec(), "post-withdraw capacity", capacity.Dec())
			return core.Errorf(core.ErrUndercollateralized, "debt %s would exceed capacity %s", debt.Dec(), capacity.Dec())
		}
	}

	if err := s.collateral.Transfer(ctx, s.agreement.Account, s.agreement.Borrower, amount); err != nil {
		log.WithError(err).Errorln("collateral.Transfer")
		return core.Errorf(core.ErrExternalCall, "transfer collateral: %v", err)
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventTypeWithdraw,
		AssetID: s.collateral.AssetID(),
		Amount:  amount.Dec(),
	})

	return nil
}

// Seize sweep a non-collateral token mistakenly sent to the agreement
func (s *service) Seize(ctx context.Context, caller, assetID string, amount *uint256.Int) error {
	if err := s.requirePrincipal(caller, s.agreement.Executor); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	log := logger.FromContext(ctx).WithField("operation", "seize")
	ctx = logger.WithContext(ctx, log)

	if err := requireAmount(amount); err != nil {
		return err
	}

	if assetID == s.collateral.AssetID() {
		return core.Errorf(core.ErrCollateralSeizeForbidden, "%s is the collateral token", assetID)
	}

	token, err := s.tokens.Token(ctx, assetID)
	if err != nil {
		log.WithError(err).Errorln("tokens.Token")
		return core.Errorf(core.ErrExternalCall, "resolve token %s: %v", assetID, err)
	}

	if err := token.Transfer(ctx, s.agreement.Account, s.agreement.Executor, amount); err != nil {
		log.WithError(err).Errorln("token.Transfer")
		return core.Errorf(core.ErrExternalCall, "seize transfer: %v", err)
	}

	s.emit(ctx, &core.Event{
		Type:    core.EventTypeSeize,
		AssetID: assetID,
		Amount:  amount.Dec(),
	})

	return nil
}
