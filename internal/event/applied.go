package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionApplied is the outbound event published after a record has been
// applied. Downstream consumers get the record identity plus the account
// balances as of this event.
type TransactionApplied struct {
	EventID    uuid.UUID       `json:"event_id"`
	Type       string          `json:"type"`
	Client     uint16          `json:"client"`
	Tx         uint32          `json:"tx"`
	Amount     decimal.Decimal `json:"amount"`
	Available  decimal.Decimal `json:"available"`
	Held       decimal.Decimal `json:"held"`
	Locked     bool            `json:"locked"`
	OccurredAt time.Time       `json:"occurred_at"`
}
