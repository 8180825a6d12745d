package views

import (
	"time"

	"creditline/core"
	"creditline/pkg/number"
)

// Position human readable position view: token amounts in the collateral's
// own scale, USD values 18-decimal.
type Position struct {
	Collateral           string `json:"collateral"`
	EffectiveCollateral  string `json:"effective_collateral"`
	CollateralValue      string `json:"collateral_value"`
	Debt                 string `json:"debt"`
	MaxBorrow            string `json:"max_borrow"`
	LiquidationThreshold string `json:"liquidation_threshold"`
	MaxLiquidatable      string `json:"max_liquidatable"`
	Paused               bool   `json:"paused"`
}

// NewPosition build a position view
func NewPosition(p *core.Position, collateralDecimals uint8) *Position {
	return &Position{
		Collateral:           number.ToDecimal(p.Collateral, collateralDecimals).String(),
		EffectiveCollateral:  number.ToDecimal(p.EffectiveCollateral, collateralDecimals).String(),
		CollateralValue:      number.ToDecimal(p.CollateralValue, number.WadDecimals).String(),
		Debt:                 number.ToDecimal(p.Debt, number.WadDecimals).String(),
		MaxBorrow:            number.ToDecimal(p.MaxBorrow, number.WadDecimals).String(),
		LiquidationThreshold: number.ToDecimal(p.LiquidationThreshold, number.WadDecimals).String(),
		MaxLiquidatable:      number.ToDecimal(p.MaxLiquidatable, collateralDecimals).String(),
		Paused:               p.Paused,
	}
}

// Event event view
type Event struct {
	ID        uint64    `json:"id"`
	TraceID   string    `json:"trace_id"`
	Type      string    `json:"type"`
	MarketID  string    `json:"market_id,omitempty"`
	AssetID   string    `json:"asset_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Amount2   string    `json:"amount2,omitempty"`
	Old       string    `json:"old,omitempty"`
	New       string    `json:"new,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent build an event view
func NewEvent(e *core.Event) *Event {
	return &Event{
		ID:        e.ID,
		TraceID:   e.TraceID,
		Type:      string(e.Type),
		MarketID:  e.MarketID,
		AssetID:   e.AssetID,
		Amount:    e.Amount,
		Amount2:   e.Amount2,
		Old:       e.Old,
		New:       e.New,
		CreatedAt: e.CreatedAt,
	}
}
