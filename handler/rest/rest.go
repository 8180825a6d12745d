package rest

import (
	"errors"
	"net/http"

	"creditline/core"
	"creditline/handler/param"
	"creditline/handler/render"
	"creditline/handler/views"
	"creditline/pkg/number"
	"creditline/service/converter"
	"creditline/service/feed"

	"github.com/go-chi/chi"
	"github.com/holiman/uint256"
)

const headerPrincipal = "X-Principal"

// Handle the agreement admin surface. The principal header carries the
// authenticated caller identity; authorization proper happens in the
// agreement service.
func Handle(cfg *core.Config, service core.IAgreementService, eventStore core.IEventStore) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/position", positionHandler(cfg, service))
	router.Get("/events", eventsHandler(eventStore))

	router.Post("/borrow", borrowHandler(service))
	router.Post("/borrow-max", borrowMaxHandler(service))
	router.Post("/repay", repayHandler(service))
	router.Post("/repay-full", repayFullHandler(service))
	router.Post("/withdraw", withdrawHandler(service))

	router.Post("/liquidate/exact-in", liquidateExactInHandler(service))
	router.Post("/liquidate/exact-out", liquidateExactOutHandler(service))
	router.Post("/seize", seizeHandler(service))
	router.Put("/converters", convertersHandler(cfg, service))
	router.Post("/pause", pauseHandler(service, true))
	router.Post("/unpause", pauseHandler(service, false))

	router.Put("/collateral-cap", capHandler(service))
	router.Put("/price-feed", feedHandler(service))

	return router
}

func caller(r *http.Request) string {
	return r.Header.Get(headerPrincipal)
}

func amountOf(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, core.Errorf(core.ErrInvalidAmount, "missing amount")
	}

	return number.FromString(s)
}

func positionHandler(cfg *core.Config, service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		position, err := service.Position(r.Context())
		if err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, views.NewPosition(position, cfg.Agreement.CollateralDecimals))
	}
}

func eventsHandler(eventStore core.IEventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Type  string `json:"type"`
			Limit int    `json:"limit"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Limit <= 0 {
			params.Limit = 100
		}

		var (
			events []*core.Event
			err    error
		)
		if params.Type != "" {
			events, err = eventStore.ListByType(r.Context(), core.EventType(params.Type), params.Limit)
		} else {
			events, err = eventStore.List(r.Context(), params.Limit)
		}
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		items := make([]*views.Event, 0, len(events))
		for _, e := range events {
			items = append(items, views.NewEvent(e))
		}

		render.JSON(w, items)
	}
}

func borrowHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Market string `json:"market"`
			Amount string `json:"amount"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := amountOf(params.Amount)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := service.Borrow(r.Context(), caller(r), params.Market, amount); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"market": params.Market, "amount": amount.Dec()})
	}
}

func borrowMaxHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Market string `json:"market"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := service.BorrowMax(r.Context(), caller(r), params.Market)
		if err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"market": params.Market, "amount": amount.Dec()})
	}
}

func repayHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Market string `json:"market"`
			Amount string `json:"amount"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := amountOf(params.Amount)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := service.Repay(r.Context(), caller(r), params.Market, amount); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"market": params.Market, "amount": amount.Dec()})
	}
}

func repayFullHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Market string `json:"market"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := service.RepayFull(r.Context(), caller(r), params.Market)
		if err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"market": params.Market, "amount": amount.Dec()})
	}
}

func withdrawHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Amount string `json:"amount"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := amountOf(params.Amount)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := service.Withdraw(r.Context(), caller(r), amount); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"amount": amount.Dec()})
	}
}

func liquidateExactInHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Market           string `json:"market"`
			CollateralAmount string `json:"collateral_amount"`
			MinRepay         string `json:"min_repay"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		collateralAmount, err := amountOf(params.CollateralAmount)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		minRepay, err := amountOf(params.MinRepay)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		result, err := service.LiquidateExactCollateralIn(r.Context(), caller(r), params.Market, collateralAmount, minRepay)
		if err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, result)
	}
}

func liquidateExactOutHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Market        string `json:"market"`
			RepayAmount   string `json:"repay_amount"`
			MaxCollateral string `json:"max_collateral"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		repayAmount, err := amountOf(params.RepayAmount)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		maxCollateral, err := amountOf(params.MaxCollateral)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		result, err := service.LiquidateExactDebtOut(r.Context(), caller(r), params.Market, repayAmount, maxCollateral)
		if err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, result)
	}
}

func seizeHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Asset  string `json:"asset"`
			Amount string `json:"amount"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := amountOf(params.Amount)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := service.Seize(r.Context(), caller(r), params.Asset, amount); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"asset": params.Asset, "amount": amount.Dec()})
	}
}

func convertersHandler(cfg *core.Config, service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Markets    []string `json:"markets"`
			Converters []string `json:"converters"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		clients := make([]core.Converter, 0, len(params.Converters))
		for _, endpoint := range params.Converters {
			clients = append(clients, converter.New(endpoint, cfg.Agreement.Account))
		}

		if err := service.SetConverter(r.Context(), caller(r), params.Markets, clients); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"markets": params.Markets})
	}
}

func pauseHandler(service core.IAgreementService, pause bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if pause {
			err = service.Pause(r.Context(), caller(r))
		} else {
			err = service.Unpause(r.Context(), caller(r))
		}
		if err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"paused": service.Paused()})
	}
}

func capHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Cap string `json:"cap"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		// zero removes the cap
		cap, err := number.FromString(params.Cap)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := service.SetCollateralCap(r.Context(), caller(r), cap); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"cap": cap.Dec()})
	}
}

func feedHandler(service core.IAgreementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Endpoint string `json:"endpoint"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := service.SetPriceFeed(r.Context(), caller(r), feed.New(params.Endpoint)); err != nil {
			render.CoreError(w, err)
			return
		}

		render.JSON(w, render.H{"endpoint": params.Endpoint})
	}
}
