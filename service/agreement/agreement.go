package agreement

import (
	"context"
	"sync"

	"creditline/core"
	"creditline/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

type service struct {
	agreement          *core.Agreement
	comptroller        core.Comptroller
	collateral         core.Token
	collateralDecimals uint8
	tokens             core.TokenProvider
	events             core.IEventStore

	guard guard

	// governor / executor mutable state
	mu            sync.RWMutex
	priceFeed     core.PriceFeed
	collateralCap *uint256.Int
	converters    map[string]core.Converter
	paused        bool
}

// New build the credit line service. The price feed must quote the
// collateral token and the collateral token's decimals must fit the
// 18-decimal scale; both are checked here so a misconfigured agreement
// fails before it takes any funds.
func New(
	ctx context.Context,
	agreement *core.Agreement,
	comptroller core.Comptroller,
	collateral core.Token,
	tokens core.TokenProvider,
	priceFeed core.PriceFeed,
	events core.IEventStore,
) (core.IAgreementService, error) {
	if err := agreement.Validate(); err != nil {
		return nil, err
	}

	decimals, err := collateral.Decimals(ctx)
	if err != nil {
		return nil, core.Errorf(core.ErrExternalCall, "collateral.Decimals: %v", err)
	}

	if decimals > number.WadDecimals {
		return nil, core.Errorf(core.ErrDecimalOverflow, "collateral decimals %d > 18", decimals)
	}

	s := &service{
		agreement:          agreement,
		comptroller:        comptroller,
		collateral:         collateral,
		collateralDecimals: decimals,
		tokens:             tokens,
		events:             events,
		converters:         make(map[string]core.Converter),
	}

	if err := s.checkFeed(ctx, priceFeed); err != nil {
		return nil, err
	}
	s.priceFeed = priceFeed

	return s, nil
}

func (s *service) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// Position derive the live position. Read only, no guard.
func (s *service) Position(ctx context.Context) (*core.Position, error) {
	balance, err := s.collateralBalance(ctx)
	if err != nil {
		return nil, err
	}

	effective, err := s.effectiveCollateral(ctx, nil)
	if err != nil {
		return nil, err
	}

	value, err := s.collateralValue(ctx, nil)
	if err != nil {
		return nil, err
	}

	debt, err := s.debtValue(ctx, "", nil)
	if err != nil {
		return nil, err
	}

	maxBorrow, err := number.MulWad(value, s.agreement.CollateralFactor)
	if err != nil {
		return nil, wrapNumber(err)
	}

	threshold, err := number.MulWad(value, s.agreement.LiquidationFactor)
	if err != nil {
		return nil, wrapNumber(err)
	}

	maxLiquidatable, err := number.MulWad(effective, s.agreement.CloseFactor)
	if err != nil {
		return nil, wrapNumber(err)
	}

	return &core.Position{
		Collateral:           balance,
		EffectiveCollateral:  effective,
		CollateralValue:      value,
		Debt:                 debt,
		MaxBorrow:            maxBorrow,
		LiquidationThreshold: threshold,
		MaxLiquidatable:      maxLiquidatable,
		Paused:               s.Paused(),
	}, nil
}

// DebtValue current aggregate debt in 18-decimal USD
func (s *service) DebtValue(ctx context.Context) (*uint256.Int, error) {
	return s.debtValue(ctx, "", nil)
}

// ---- valuation helpers, always recomputed fresh ----

func (s *service) collateralBalance(ctx context.Context) (*uint256.Int, error) {
	balance, err := s.collateral.BalanceOf(ctx, s.agreement.Account)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("collateral.BalanceOf")
		return nil, core.Errorf(core.ErrExternalCall, "collateral.BalanceOf: %v", err)
	}

	return balance, nil
}

// effectiveCollateral the balance counted toward valuation after an
// optional hypothetical withdrawal, clamped to the collateral cap
func (s *service) effectiveCollateral(ctx context.Context, hypotheticalWithdraw *uint256.Int) (*uint256.Int, error) {
	balance, err := s.collateralBalance(ctx)
	if err != nil {
		return nil, err
	}

	remain := balance
	if hypotheticalWithdraw != nil && !hypotheticalWithdraw.IsZero() {
		if hypotheticalWithdraw.Gt(balance) {
			return nil, core.Errorf(core.ErrInsufficientCollateral, "withdraw %s exceeds balance %s", hypotheticalWithdraw.Dec(), balance.Dec())
		}

		remain = new(uint256.Int).Sub(balance, hypotheticalWithdraw)
	}

	if cap := s.cap(); cap != nil && !cap.IsZero() && remain.Gt(cap) {
		remain = new(uint256.Int).Set(cap)
	}

	return remain, nil
}

// collateralValue 18-decimal USD value of the effective collateral
func (s *service) collateralValue(ctx context.Context, hypotheticalWithdraw *uint256.Int) (*uint256.Int, error) {
	effective, err := s.effectiveCollateral(ctx, hypotheticalWithdraw)
	if err != nil {
		return nil, err
	}

	price, err := s.feed().Price(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("priceFeed.Price")
		return nil, core.Errorf(core.ErrExternalCall, "priceFeed.Price: %v", err)
	}

	value, err := number.NormalizedValue(effective, s.collateralDecimals, price)
	if err != nil {
		return nil, wrapNumber(err)
	}

	return value, nil
}

// debtValue aggregate USD debt over every entered market, optionally with
// extraBorrow added to targetMarketID's balance. Live reads, never cached.
func (s *service) debtValue(ctx context.Context, targetMarketID string, extraBorrow *uint256.Int) (*uint256.Int, error) {
	log := logger.FromContext(ctx)

	markets, err := s.comptroller.MarketsEnteredBy(ctx, s.agreement.Account)
	if err != nil {
		log.WithError(err).Errorln("comptroller.MarketsEnteredBy")
		return nil, core.Errorf(core.ErrExternalCall, "comptroller.MarketsEnteredBy: %v", err)
	}

	oracle, err := s.comptroller.Oracle(ctx)
	if err != nil {
		log.WithError(err).Errorln("comptroller.Oracle")
		return nil, core.Errorf(core.ErrExternalCall, "comptroller.Oracle: %v", err)
	}

	total := uint256.NewInt(0)
	for _, market := range markets {
		borrow, err := market.BorrowBalanceCurrent(ctx, s.agreement.Account)
		if err != nil {
			log.WithError(err).Errorln("market.BorrowBalanceCurrent")
			return nil, core.Errorf(core.ErrExternalCall, "market %s BorrowBalanceCurrent: %v", market.ID(), err)
		}

		if market.ID() == targetMarketID && extraBorrow != nil {
			sum, overflow := new(uint256.Int).AddOverflow(borrow, extraBorrow)
			if overflow {
				return nil, core.Errorf(core.ErrDecimalOverflow, "market %s borrow", market.ID())
			}
			borrow = sum
		}

		price, err := oracle.UnderlyingPrice(ctx, market)
		if err != nil {
			log.WithError(err).Errorln("oracle.UnderlyingPrice")
			return nil, core.Errorf(core.ErrExternalCall, "market %s UnderlyingPrice: %v", market.ID(), err)
		}

		value, err := number.MulWad(borrow, price)
		if err != nil {
			return nil, wrapNumber(err)
		}

		sum, overflow := new(uint256.Int).AddOverflow(total, value)
		if overflow {
			return nil, core.Errorf(core.ErrDecimalOverflow, "debt aggregation")
		}
		total = sum
	}

	return total, nil
}

// maxBorrowValue borrow capacity after an optional hypothetical withdrawal
func (s *service) maxBorrowValue(ctx context.Context, hypotheticalWithdraw *uint256.Int) (*uint256.Int, error) {
	value, err := s.collateralValue(ctx, hypotheticalWithdraw)
	if err != nil {
		return nil, err
	}

	capacity, err := number.MulWad(value, s.agreement.CollateralFactor)
	if err != nil {
		return nil, wrapNumber(err)
	}

	return capacity, nil
}

func (s *service) liquidationThreshold(ctx context.Context) (*uint256.Int, error) {
	value, err := s.collateralValue(ctx, nil)
	if err != nil {
		return nil, err
	}

	threshold, err := number.MulWad(value, s.agreement.LiquidationFactor)
	if err != nil {
		return nil, wrapNumber(err)
	}

	return threshold, nil
}

func (s *service) maxLiquidatableCollateral(ctx context.Context) (*uint256.Int, error) {
	effective, err := s.effectiveCollateral(ctx, nil)
	if err != nil {
		return nil, err
	}

	bound, err := number.MulWad(effective, s.agreement.CloseFactor)
	if err != nil {
		return nil, wrapNumber(err)
	}

	return bound, nil
}

// ---- shared plumbing ----

func (s *service) market(ctx context.Context, marketID string) (core.Market, error) {
	market, err := s.comptroller.Market(ctx, marketID)
	if err != nil || market == nil {
		logger.FromContext(ctx).WithError(err).Infoln("comptroller.Market", marketID)
		return nil, core.Errorf(core.ErrMarketNotFound, "%s", marketID)
	}

	return market, nil
}

func (s *service) feed() core.PriceFeed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priceFeed
}

func (s *service) cap() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collateralCap
}

func (s *service) converter(marketID string) core.Converter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.converters[marketID]
}

func (s *service) checkFeed(ctx context.Context, feed core.PriceFeed) error {
	if feed == nil {
		return core.Errorf(core.ErrPriceFeedMismatch, "nil feed")
	}

	quoted, err := feed.QuotedAsset(ctx)
	if err != nil {
		return core.Errorf(core.ErrExternalCall, "priceFeed.QuotedAsset: %v", err)
	}

	if quoted != s.collateral.AssetID() {
		return core.Errorf(core.ErrPriceFeedMismatch, "feed quotes %s, collateral is %s", quoted, s.collateral.AssetID())
	}

	return nil
}

func (s *service) requirePrincipal(caller, principal string) error {
	if caller != principal {
		return core.Errorf(core.ErrOperationForbidden, "caller %s", caller)
	}

	return nil
}

func requireAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return core.Errorf(core.ErrInvalidAmount, "amount must be positive")
	}

	return nil
}

func (s *service) emit(ctx context.Context, event *core.Event) {
	if s.events == nil {
		return
	}

	event.TraceID = uuid.Must(uuid.NewV4()).String()
	if err := s.events.Create(ctx, event); err != nil {
		// the journal observes, it does not gate settlement
		logger.FromContext(ctx).WithError(err).Errorln("events.Create")
	}
}

func wrapNumber(err error) error {
	switch err {
	case nil:
		return nil
	case number.ErrDivisionByZero:
		return core.Errorf(core.ErrInvalidAmount, "division by zero")
	default:
		return core.Errorf(core.ErrDecimalOverflow, "%v", err)
	}
}
