package core

import (
	"context"
	"time"
)

// EventType string
type EventType string

const (
	// EventTypeBorrow borrow executed
	EventTypeBorrow EventType = "borrow"
	// EventTypeRepay repay executed
	EventTypeRepay EventType = "repay"
	// EventTypeWithdraw collateral withdrawn
	EventTypeWithdraw EventType = "withdraw"
	// EventTypeLiquidation liquidation completed
	EventTypeLiquidation EventType = "liquidation"
	// EventTypeSeize non-collateral token swept
	EventTypeSeize EventType = "seize"
	// EventTypeCapUpdated collateral cap updated
	EventTypeCapUpdated EventType = "cap_updated"
	// EventTypeFeedUpdated price feed updated
	EventTypeFeedUpdated EventType = "feed_updated"
	// EventTypeConverterUpdated converter binding updated
	EventTypeConverterUpdated EventType = "converter_updated"
	// EventTypePaused circuit breaker engaged
	EventTypePaused EventType = "paused"
	// EventTypeUnpaused circuit breaker released
	EventTypeUnpaused EventType = "unpaused"
)

// Event observability record of a completed operation. Amounts are base
// unit decimal strings; for liquidations Amount is the collateral consumed
// and Amount2 the underlying repaid, for cap/feed updates Old and New carry
// the transition.
type Event struct {
	ID        uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID   string    `sql:"size:36;unique_index:event_trace_idx" json:"trace_id"`
	Type      EventType `sql:"size:32;index:event_type_idx" json:"type"`
	MarketID  string    `sql:"size:64" json:"market_id,omitempty"`
	AssetID   string    `sql:"size:64" json:"asset_id,omitempty"`
	Amount    string    `sql:"size:80" json:"amount,omitempty"`
	Amount2   string    `sql:"size:80" json:"amount2,omitempty"`
	Old       string    `sql:"size:128" json:"old,omitempty"`
	New       string    `sql:"size:128" json:"new,omitempty"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// IEventStore event journal interface
type IEventStore interface {
	Create(ctx context.Context, event *Event) error
	List(ctx context.Context, limit int) ([]*Event, error)
	ListByType(ctx context.Context, typ EventType, limit int) ([]*Event, error)
}
