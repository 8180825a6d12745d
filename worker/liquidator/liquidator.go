package liquidator

import (
	"context"
	"errors"
	"sync"
	"time"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Worker liquidation keeper: watches the agreement's solvency and settles
// the largest debt when the position crosses the liquidation threshold.
type Worker struct {
	worker.BaseJob
	config      *core.Config
	service     core.IAgreementService
	comptroller core.Comptroller
}

// New new liquidator worker
func New(cfg *core.Config, service core.IAgreementService, comptroller core.Comptroller) *Worker {
	job := Worker{
		config:      cfg,
		service:     service,
		comptroller: comptroller,
	}

	l, err := time.LoadLocation(cfg.Location)
	if err != nil {
		l = time.UTC
	}
	job.Cron = cron.New(cron.WithLocation(l))
	job.Cron.AddFunc(cfg.Worker.Spec, job.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "liquidator")
	ctx = logger.WithContext(ctx, log)

	position, err := w.service.Position(ctx)
	if err != nil {
		log.WithError(err).Errorln("agreement.Position")
		return err
	}

	if !position.Debt.Gt(position.LiquidationThreshold) {
		log.Debugln("solvent: debt", position.Debt.Dec(), "threshold", position.LiquidationThreshold.Dec())
		return nil
	}

	marketID, balance, err := w.largestDebt(ctx)
	if err != nil {
		log.WithError(err).Errorln("largestDebt")
		return err
	}

	if balance.IsZero() {
		return nil
	}

	log = log.WithFields(logrus.Fields{
		"market": marketID,
		"debt":   position.Debt.Dec(),
	})

	if w.config.Worker.DryRun {
		log.Infoln("dry run: would liquidate", balance.Dec())
		return nil
	}

	return w.liquidate(ctx, marketID, balance, position.MaxLiquidatable)
}

// liquidate repay target, shrinking the target when it overruns the close
// factor bound
func (w *Worker) liquidate(ctx context.Context, marketID string, repay, maxCollateral *uint256.Int) error {
	log := logger.FromContext(ctx)

	amount := new(uint256.Int).Set(repay)
	for i := 0; i < 5 && !amount.IsZero(); i++ {
		result, err := w.service.LiquidateExactDebtOut(ctx, w.config.Agreement.Executor, marketID, amount, maxCollateral)
		if errors.Is(err, core.ErrLiquidationTooLarge) {
			amount.Rsh(amount, 1)
			continue
		}
		if err != nil {
			log.WithError(err).Errorln("agreement.LiquidateExactDebtOut")
			return err
		}

		log.Infoln("liquidated", result.CollateralIn.Dec(), "collateral for", result.Repaid.Dec())
		return nil
	}

	return nil
}

// largestDebt the entered market with the highest USD debt, balances and
// prices fetched concurrently
func (w *Worker) largestDebt(ctx context.Context) (string, *uint256.Int, error) {
	markets, err := w.comptroller.MarketsEnteredBy(ctx, w.config.Agreement.Account)
	if err != nil {
		return "", nil, err
	}

	oracle, err := w.comptroller.Oracle(ctx)
	if err != nil {
		return "", nil, err
	}

	var (
		mu      sync.Mutex
		bestID  string
		best    = uint256.NewInt(0)
		balance = uint256.NewInt(0)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, market := range markets {
		market := market
		g.Go(func() error {
			borrow, err := market.BorrowBalanceCurrent(gctx, w.config.Agreement.Account)
			if err != nil {
				return err
			}

			price, err := oracle.UnderlyingPrice(gctx, market)
			if err != nil {
				return err
			}

			value, err := number.MulWad(borrow, price)
			if err != nil {
				return err
			}

			mu.Lock()
			if value.Gt(best) {
				best = value
				bestID = market.ID()
				balance = borrow
			}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	return bestID, balance, nil
}
