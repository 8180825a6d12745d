package agreement

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
)

// SetCollateralCap update the balance counted toward valuation. Zero (or
// nil) removes the cap.
func (s *service) SetCollateralCap(ctx context.Context, caller string, cap *uint256.Int) error {
	if err := s.requirePrincipal(caller, s.agreement.Governor); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	s.mu.Lock()
	old := s.collateralCap
	if cap != nil {
		s.collateralCap = new(uint256.Int).Set(cap)
	} else {
		s.collateralCap = nil
	}
	s.mu.Unlock()

	oldDec := "0"
	if old != nil {
		oldDec = old.Dec()
	}
	newDec := "0"
	if cap != nil {
		newDec = cap.Dec()
	}

	logger.FromContext(ctx).Infoln("collateral cap", oldDec, "->", newDec)

	s.emit(ctx, &core.Event{
		Type: core.EventTypeCapUpdated,
		Old:  oldDec,
		New:  newDec,
	})

	return nil
}

// SetPriceFeed swap the collateral price feed. The new feed must quote the
// collateral token or the old feed stays active.
func (s *service) SetPriceFeed(ctx context.Context, caller string, feed core.PriceFeed) error {
	if err := s.requirePrincipal(caller, s.agreement.Governor); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	if err := s.checkFeed(ctx, feed); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.priceFeed
	s.priceFeed = feed
	s.mu.Unlock()

	oldID := ""
	if old != nil {
		oldID = old.ID()
	}

	logger.FromContext(ctx).Infoln("price feed", oldID, "->", feed.ID())

	s.emit(ctx, &core.Event{
		Type: core.EventTypeFeedUpdated,
		Old:  oldID,
		New:  feed.ID(),
	})

	return nil
}

// Pause engage the circuit breaker. A no-op when already paused.
func (s *service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause release the circuit breaker. A no-op when not paused.
func (s *service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *service) setPaused(ctx context.Context, caller string, paused bool) error {
	if err := s.requirePrincipal(caller, s.agreement.Executor); err != nil {
		return err
	}

	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	s.mu.Lock()
	changed := s.paused != paused
	s.paused = paused
	s.mu.Unlock()

	if !changed {
		return nil
	}

	typ := core.EventTypeUnpaused
	if paused {
		typ = core.EventTypePaused
	}

	logger.FromContext(ctx).Infoln("circuit breaker:", typ)
	s.emit(ctx, &core.Event{Type: typ})

	return nil
}
