package agreement

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// LiquidateExactCollateralIn consume exactly collateralAmount of collateral
// and repay market with at least minRepay of proceeds.
func (s *service) LiquidateExactCollateralIn(ctx context.Context, caller, marketID string, collateralAmount, minRepay *uint256.Int) (*core.LiquidationResult, error) {
	if err := s.requirePrincipal(caller, s.agreement.Executor); err != nil {
		return nil, err
	}

	if err := s.guard.enter(); err != nil {
		return nil, err
	}
	defer s.guard.exit()

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation": "liquidate-exact-in",
		"market":    marketID,
	})
	ctx = logger.WithContext(ctx, log)

	if err := requireAmount(collateralAmount); err != nil {
		return nil, err
	}

	market, converter, bound, err := s.beginLiquidation(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if collateralAmount.Gt(bound) {
		return nil, core.Errorf(core.ErrLiquidationTooLarge, "collateral %s exceeds bound %s", collateralAmount.Dec(), bound.Dec())
	}

	if err := s.collateral.Approve(ctx, s.agreement.Account, converter.ID(), collateralAmount); err != nil {
		log.WithError(err).Errorln("collateral.Approve")
		return nil, core.Errorf(core.ErrExternalCall, "approve converter: %v", err)
	}

	// the realized output is trusted as-is, per the converter's declared
	// exact-in semantics
	repaid, err := converter.ConvertExactIn(ctx, collateralAmount, minRepay)
	if err != nil {
		log.WithError(err).Errorln("converter.ConvertExactIn")
		return nil, core.Errorf(core.ErrExternalCall, "convert exact in: %v", err)
	}

	if err := s.settleLiquidation(ctx, market, collateralAmount, repaid); err != nil {
		return nil, err
	}

	return &core.LiquidationResult{
		MarketID:     marketID,
		CollateralIn: collateralAmount,
		Repaid:       repaid,
	}, nil
}

// LiquidateExactDebtOut repay market with exactly repayAmount, consuming at
// most maxCollateralIn of collateral.
func (s *service) LiquidateExactDebtOut(ctx context.Context, caller, marketID string, repayAmount, maxCollateralIn *uint256.Int) (*core.LiquidationResult, error) {
	if err := s.requirePrincipal(caller, s.agreement.Executor); err != nil {
		return nil, err
	}

	if err := s.guard.enter(); err != nil {
		return nil, err
	}
	defer s.guard.exit()

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation": "liquidate-exact-out",
		"market":    marketID,
	})
	ctx = logger.WithContext(ctx, log)

	if err := requireAmount(repayAmount); err != nil {
		return nil, err
	}

	market, converter, bound, err := s.beginLiquidation(ctx, marketID)
	if err != nil {
		return nil, err
	}

	// the implied input at current prices must honor the close factor
	implied, err := converter.QuoteAmountIn(ctx, repayAmount)
	if err != nil {
		log.WithError(err).Errorln("converter.QuoteAmountIn")
		return nil, core.Errorf(core.ErrExternalCall, "quote amount in: %v", err)
	}

	if implied.Gt(bound) {
		return nil, core.Errorf(core.ErrLiquidationTooLarge, "implied collateral %s exceeds bound %s", implied.Dec(), bound.Dec())
	}

	if err := s.collateral.Approve(ctx, s.agreement.Account, converter.ID(), maxCollateralIn); err != nil {
		log.WithError(err).Errorln("collateral.Approve")
		return nil, core.Errorf(core.ErrExternalCall, "approve converter: %v", err)
	}

	collateralIn, err := converter.ConvertExactOut(ctx, repayAmount, maxCollateralIn)
	if err != nil {
		log.WithError(err).Errorln("converter.ConvertExactOut")
		return nil, core.Errorf(core.ErrExternalCall, "convert exact out: %v", err)
	}

	if err := s.settleLiquidation(ctx, market, collateralIn, repayAmount); err != nil {
		return nil, err
	}

	return &core.LiquidationResult{
		MarketID:     marketID,
		CollateralIn: collateralIn,
		Repaid:       repayAmount,
	}, nil
}

// beginLiquidation steps 1-3 of the protocol: eligibility, converter
// validation, and the close factor bound both variants check against.
func (s *service) beginLiquidation(ctx context.Context, marketID string) (core.Market, core.Converter, *uint256.Int, error) {
	log := logger.FromContext(ctx)

	market, err := s.market(ctx, marketID)
	if err != nil {
		return nil, nil, nil, err
	}

	debt, err := s.debtValue(ctx, "", nil)
	if err != nil {
		return nil, nil, nil, err
	}

	threshold, err := s.liquidationThreshold(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	if !debt.Gt(threshold) {
		log.Infoln("liquidation denied: debt", debt.Dec(), "threshold", threshold.Dec())
		return nil, nil, nil, core.Errorf(core.ErrNotLiquidatable, "debt %s <= threshold %s", debt.Dec(), threshold.Dec())
	}

	converter := s.converter(marketID)
	if converter == nil {
		return nil, nil, nil, core.Errorf(core.ErrConverterUnset, "market %s", marketID)
	}

	if err := s.checkConverter(ctx, converter, market); err != nil {
		return nil, nil, nil, err
	}

	bound, err := s.maxLiquidatableCollateral(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	return market, converter, bound, nil
}

func (s *service) settleLiquidation(ctx context.Context, market core.Market, collateralIn, repaid *uint256.Int) error {
	underlying, err := market.Underlying(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("market.Underlying")
		return core.Errorf(core.ErrExternalCall, "market %s Underlying: %v", market.ID(), err)
	}

	if err := s.repayMarket(ctx, market, underlying, repaid); err != nil {
		return err
	}

	s.emit(ctx, &core.Event{
		Type:     core.EventTypeLiquidation,
		MarketID: market.ID(),
		AssetID:  s.collateral.AssetID(),
		Amount:   collateralIn.Dec(),
		Amount2:  repaid.Dec(),
	})

	return nil
}

// SetConverter bind converters to markets, replacing any prior bindings
func (s *service) SetConverter(ctx context.Context, caller string, marketIDs []string, converters []core.Converter) error {
	if err := s.requirePrincipal(caller, s.agreement.Executor); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	if len(marketIDs) != len(converters) {
		return core.Errorf(core.ErrBatchMismatch, "%d markets, %d converters", len(marketIDs), len(converters))
	}

	// validate the whole batch before touching any binding
	for i, converter := range converters {
		if converter == nil {
			return core.Errorf(core.ErrConverterInvalid, "market %s", marketIDs[i])
		}

		market, err := s.market(ctx, marketIDs[i])
		if err != nil {
			return err
		}

		if err := s.checkConverter(ctx, converter, market); err != nil {
			return err
		}
	}

	s.mu.Lock()
	olds := make([]string, len(marketIDs))
	for i, marketID := range marketIDs {
		if prior := s.converters[marketID]; prior != nil {
			olds[i] = prior.ID()
		}
		s.converters[marketID] = converters[i]
	}
	s.mu.Unlock()

	for i, marketID := range marketIDs {
		s.emit(ctx, &core.Event{
			Type:     core.EventTypeConverterUpdated,
			MarketID: marketID,
			Old:      olds[i],
			New:      converters[i].ID(),
		})
	}

	return nil
}

// checkConverter the declared source must be the collateral token and the
// declared destination the market's underlying
func (s *service) checkConverter(ctx context.Context, converter core.Converter, market core.Market) error {
	source, err := converter.SourceAsset(ctx)
	if err != nil {
		return core.Errorf(core.ErrExternalCall, "converter.SourceAsset: %v", err)
	}

	if source != s.collateral.AssetID() {
		return core.Errorf(core.ErrConverterMismatch, "source %s, collateral %s", source, s.collateral.AssetID())
	}

	destination, err := converter.DestinationAsset(ctx)
	if err != nil {
		return core.Errorf(core.ErrExternalCall, "converter.DestinationAsset: %v", err)
	}

	underlying, err := market.Underlying(ctx)
	if err != nil {
		return core.Errorf(core.ErrExternalCall, "market %s Underlying: %v", market.ID(), err)
	}

	if destination != underlying.AssetID() {
		return core.Errorf(core.ErrConverterMismatch, "destination %s, underlying %s", destination, underlying.AssetID())
	}

	return nil
}
