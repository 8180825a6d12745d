package cmd

import (
	"context"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/service/agreement"
	"creditline/service/comptroller"
	"creditline/service/converter"
	"creditline/service/feed"
	"creditline/service/token"
	"creditline/store/event"

	"github.com/fox-one/pkg/store/db"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

// ---------------store-----------------------------------------

func provideEventStore(db *db.DB) core.IEventStore {
	return event.New(db)
}

// ------------------service------------------------------------

func provideTokenProvider() core.TokenProvider {
	return token.NewProvider(cfg.Endpoints.Token)
}

func provideCollateralToken() core.Token {
	return token.New(cfg.Endpoints.Token, cfg.Agreement.CollateralAsset)
}

func provideComptroller() core.Comptroller {
	return comptroller.New(cfg.Endpoints.Comptroller, cfg.Agreement.Account, provideTokenProvider())
}

func providePriceFeed() core.PriceFeed {
	return feed.New(cfg.Agreement.PriceFeed)
}

func provideAgreement() *core.Agreement {
	collateralFactor, err := number.WadFromString(cfg.Agreement.CollateralFactor)
	if err != nil {
		panic(err)
	}

	liquidationFactor, err := number.WadFromString(cfg.Agreement.LiquidationFactor)
	if err != nil {
		panic(err)
	}

	closeFactor, err := number.WadFromString(cfg.Agreement.CloseFactor)
	if err != nil {
		panic(err)
	}

	return &core.Agreement{
		Borrower:          cfg.Agreement.Borrower,
		Executor:          cfg.Agreement.Executor,
		Governor:          cfg.Agreement.Governor,
		Account:           cfg.Agreement.Account,
		CollateralFactor:  collateralFactor,
		LiquidationFactor: liquidationFactor,
		CloseFactor:       closeFactor,
	}
}

func provideAgreementService(ctx context.Context, eventStore core.IEventStore) core.IAgreementService {
	service, err := agreement.New(
		ctx,
		provideAgreement(),
		provideComptroller(),
		provideCollateralToken(),
		provideTokenProvider(),
		providePriceFeed(),
		eventStore,
	)
	if err != nil {
		panic(err)
	}

	if cap := cfg.Agreement.CollateralCap; cap != "" {
		amount, err := number.FromString(cap)
		if err != nil {
			panic(err)
		}

		if err := service.SetCollateralCap(ctx, cfg.Agreement.Governor, amount); err != nil {
			panic(err)
		}
	}

	if len(cfg.Endpoints.Converters) > 0 {
		markets := make([]string, 0, len(cfg.Endpoints.Converters))
		clients := make([]core.Converter, 0, len(cfg.Endpoints.Converters))
		for marketID, endpoint := range cfg.Endpoints.Converters {
			markets = append(markets, marketID)
			clients = append(clients, converter.New(endpoint, cfg.Agreement.Account))
		}

		if err := service.SetConverter(ctx, cfg.Agreement.Executor, markets, clients); err != nil {
			panic(err)
		}
	}

	return service
}
