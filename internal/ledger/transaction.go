package ledger

import (
	"github.com/shopspring/decimal"
)

// TxID is the unsigned 32-bit transaction identifier from the input stream.
// Transaction ids are globally unique across the whole stream, regardless of
// client, and are never reused.
type TxID uint32

// Kind classifies the two persisted transaction kinds. Dispute, resolve and
// chargeback are operations on an existing transaction, not kinds of their
// own.
type Kind uint8

const (
	KindDeposit Kind = iota
	KindWithdrawal
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// Transaction is the stored record of a deposit or withdrawal. Amount is
// fixed at creation; Disputed is the only mutable field.
type Transaction struct {
	Kind     Kind
	Client   ClientID
	Amount   decimal.Decimal
	Disputed bool
}

// TransactionLog owns one record per transaction id. It enforces global id
// uniqueness and ownership-checked lookup for the dispute lifecycle.
type TransactionLog struct {
	transactions map[TxID]*Transaction
}

func NewTransactionLog() *TransactionLog {
	return &TransactionLog{
		transactions: make(map[TxID]*Transaction),
	}
}

// Has reports whether id is already present.
func (l *TransactionLog) Has(id TxID) bool {
	_, ok := l.transactions[id]
	return ok
}

// InsertNew stores t under id. A duplicate id is a typed rejection and never
// alters the existing entry.
func (l *TransactionLog) InsertNew(id TxID, t Transaction) error {
	if _, ok := l.transactions[id]; ok {
		return NewDuplicateTransaction(id)
	}
	l.transactions[id] = &t
	return nil
}

// Get returns the transaction for id after verifying it belongs to the
// claimed client. The returned pointer lets the engine toggle Disputed once
// it has validated kind and state.
func (l *TransactionLog) Get(id TxID, claimed ClientID) (*Transaction, error) {
	t, ok := l.transactions[id]
	if !ok {
		return nil, errTransactionNotFound(id)
	}
	if t.Client != claimed {
		return nil, errWrongClient(id, claimed)
	}
	return t, nil
}

// Len returns the number of logged transactions.
func (l *TransactionLog) Len() int {
	return len(l.transactions)
}
