// Package engine applies decoded transaction records to per-client accounts,
// enforcing the dispute lifecycle and the accounting invariants.
package engine

import (
	"PayLedger/internal/event"
	"PayLedger/internal/ledger"
	"fmt"

	"github.com/shopspring/decimal"
)

// Engine is the single-threaded record processor. It exclusively owns the
// account store and the transaction log; records are applied strictly one at
// a time in input order. A rejected record leaves all state exactly as it was
// before the record arrived.
type Engine struct {
	accounts *ledger.AccountStore
	txlog    *ledger.TransactionLog
}

func New() *Engine {
	return &Engine{
		accounts: ledger.NewAccountStore(),
		txlog:    ledger.NewTransactionLog(),
	}
}

// Apply dispatches one record by its transaction kind. The returned error,
// if any, is a typed rejection local to this record; the engine remains
// usable for the rest of the stream.
func (e *Engine) Apply(rec event.Record) error {
	switch rec.Type {
	case event.RecordDeposit:
		return e.applyDeposit(rec)
	case event.RecordWithdrawal:
		return e.applyWithdrawal(rec)
	case event.RecordDispute:
		return e.applyDispute(rec)
	case event.RecordResolve:
		return e.applyResolve(rec)
	case event.RecordChargeback:
		return e.applyChargeback(rec)
	default:
		return fmt.Errorf("unknown record type %d for tx %d", rec.Type, rec.Tx)
	}
}

func (e *Engine) applyDeposit(rec event.Record) error {
	amount, ok := recordAmount(rec)
	if !ok {
		return ledger.NewMissingAmount(ledger.KindDeposit, rec.Tx)
	}

	// Uniqueness is checked before the balance mutation so a duplicate id
	// never moves money; the log entry is written only after the mutation
	// succeeds so a failed deposit never leaves a phantom entry.
	if e.txlog.Has(rec.Tx) {
		return ledger.NewDuplicateTransaction(rec.Tx)
	}

	if err := e.accounts.Deposit(rec.Client, amount); err != nil {
		return err
	}

	return e.txlog.InsertNew(rec.Tx, ledger.Transaction{
		Kind:   ledger.KindDeposit,
		Client: rec.Client,
		Amount: amount,
	})
}

func (e *Engine) applyWithdrawal(rec event.Record) error {
	amount, ok := recordAmount(rec)
	if !ok {
		return ledger.NewMissingAmount(ledger.KindWithdrawal, rec.Tx)
	}

	if e.txlog.Has(rec.Tx) {
		return ledger.NewDuplicateTransaction(rec.Tx)
	}

	if err := e.accounts.Withdraw(rec.Client, amount); err != nil {
		return err
	}

	return e.txlog.InsertNew(rec.Tx, ledger.Transaction{
		Kind:   ledger.KindWithdrawal,
		Client: rec.Client,
		Amount: amount,
	})
}

func (e *Engine) applyDispute(rec event.Record) error {
	tx, err := e.txlog.Get(rec.Tx, rec.Client)
	if err != nil {
		return err
	}

	// Withdrawals are never disputable: the funds already left the account
	// and there is nothing available to hold against.
	if tx.Kind != ledger.KindDeposit {
		return ledger.NewNotADeposit(rec.Tx)
	}
	if tx.Disputed {
		return ledger.NewAlreadyDisputed(rec.Tx)
	}

	if err := e.accounts.Hold(rec.Client, tx.Amount); err != nil {
		return err
	}
	tx.Disputed = true

	return nil
}

func (e *Engine) applyResolve(rec event.Record) error {
	tx, err := e.txlog.Get(rec.Tx, rec.Client)
	if err != nil {
		return err
	}

	if !tx.Disputed {
		return ledger.NewNotDisputed("resolved", rec.Tx)
	}

	if err := e.accounts.Release(rec.Client, tx.Amount); err != nil {
		return err
	}
	tx.Disputed = false

	return nil
}

func (e *Engine) applyChargeback(rec event.Record) error {
	tx, err := e.txlog.Get(rec.Tx, rec.Client)
	if err != nil {
		return err
	}

	if !tx.Disputed {
		return ledger.NewNotDisputed("chargebacked", rec.Tx)
	}

	if err := e.accounts.Chargeback(rec.Client, tx.Amount); err != nil {
		return err
	}

	// A chargeback is final. The cleared flag would in principle allow a
	// second dispute, but the account is locked by now so any further
	// operation on it is rejected first.
	tx.Disputed = false

	return nil
}

// Account returns a copy of the account for id.
func (e *Engine) Account(id ledger.ClientID) (ledger.Account, bool) {
	return e.accounts.Get(id)
}

// Accounts returns one snapshot row per known client, ordered by client id.
func (e *Engine) Accounts() []ledger.Summary {
	return e.accounts.Summaries()
}

// ClientCount returns the number of known clients.
func (e *Engine) ClientCount() int {
	return e.accounts.Len()
}

// TransactionCount returns the number of logged deposits and withdrawals.
func (e *Engine) TransactionCount() int {
	return e.txlog.Len()
}

func recordAmount(rec event.Record) (decimal.Decimal, bool) {
	if !rec.Amount.Valid {
		return decimal.Decimal{}, false
	}
	return rec.Amount.Decimal, true
}
