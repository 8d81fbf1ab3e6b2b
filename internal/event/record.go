package event

import (
	"PayLedger/internal/ledger"
	"strings"

	"github.com/shopspring/decimal"
)

// RecordType is the transaction kind column of an input row.
type RecordType uint8

const (
	RecordDeposit RecordType = iota
	RecordWithdrawal
	RecordDispute
	RecordResolve
	RecordChargeback
)

func (t RecordType) String() string {
	switch t {
	case RecordDeposit:
		return "deposit"
	case RecordWithdrawal:
		return "withdrawal"
	case RecordDispute:
		return "dispute"
	case RecordResolve:
		return "resolve"
	case RecordChargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// ParseRecordType maps the wire value to a RecordType. Lowercase is
// canonical; surrounding whitespace and case differences are tolerated.
func ParseRecordType(s string) (RecordType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return RecordDeposit, true
	case "withdrawal":
		return RecordWithdrawal, true
	case "dispute":
		return RecordDispute, true
	case "resolve":
		return RecordResolve, true
	case "chargeback":
		return RecordChargeback, true
	default:
		return 0, false
	}
}

// Record is one decoded input row, ready for the engine. Amount is only
// populated for deposits and withdrawals; dispute-family rows reference the
// original transaction's amount instead.
type Record struct {
	Type   RecordType
	Client ledger.ClientID
	Tx     ledger.TxID
	Amount decimal.NullDecimal
}
