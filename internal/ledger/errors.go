package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code identifies the rejection category for a record.
type Code string

const (
	// CodeClientLocked indicates the account refused a mutation because a
	// chargeback has locked it.
	CodeClientLocked Code = "CLIENT_LOCKED"

	// CodeClientNotFound indicates the record targets a client that has
	// never had a successful deposit.
	CodeClientNotFound Code = "CLIENT_NOT_FOUND"

	// CodeInsufficientAvailable indicates a withdrawal or dispute hold
	// exceeds the client's available funds.
	CodeInsufficientAvailable Code = "INSUFFICIENT_AVAILABLE"

	// CodeInsufficientHeld indicates a resolve or chargeback exceeds the
	// client's held funds.
	CodeInsufficientHeld Code = "INSUFFICIENT_HELD"

	// CodeDuplicateTransaction indicates the transaction id was already
	// used earlier in the stream.
	CodeDuplicateTransaction Code = "DUPLICATE_TRANSACTION"

	// CodeTransactionNotFound indicates a dispute-family record references
	// an unknown transaction id.
	CodeTransactionNotFound Code = "TRANSACTION_NOT_FOUND"

	// CodeWrongClient indicates the referenced transaction belongs to a
	// different client than the record claims.
	CodeWrongClient Code = "WRONG_CLIENT"

	// CodeMissingAmount indicates a deposit or withdrawal record arrived
	// without an amount field.
	CodeMissingAmount Code = "MISSING_AMOUNT"

	// CodeNotADeposit indicates a dispute targets a withdrawal; only
	// deposits are disputable.
	CodeNotADeposit Code = "NOT_A_DEPOSIT"

	// CodeAlreadyDisputed indicates a dispute targets a transaction that is
	// already under dispute.
	CodeAlreadyDisputed Code = "ALREADY_DISPUTED"

	// CodeNotDisputed indicates a resolve or chargeback targets a
	// transaction that is not under dispute.
	CodeNotDisputed Code = "NOT_DISPUTED"
)

// Error is the typed rejection returned for a record that could not be
// applied. It carries the identifiers and balances needed to reconstruct why
// the record was refused.
type Error struct {
	Code    Code
	Client  ClientID
	Tx      TxID
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// CodeOf extracts the rejection code from err, unwrapping as needed.
// Returns the empty code if err is not a ledger rejection.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func errClientLocked(id ClientID) *Error {
	return &Error{
		Code:    CodeClientLocked,
		Client:  id,
		Message: fmt.Sprintf("client %d is locked", id),
	}
}

func errClientNotFound(id ClientID) *Error {
	return &Error{
		Code:    CodeClientNotFound,
		Client:  id,
		Message: fmt.Sprintf("client %d does not exist", id),
	}
}

func errInsufficientAvailable(id ClientID, op string, amount, available decimal.Decimal) *Error {
	return &Error{
		Code:   CodeInsufficientAvailable,
		Client: id,
		Message: fmt.Sprintf("client %d cannot %s %s as available amount is %s",
			id, op, amount, available),
	}
}

func errInsufficientHeld(id ClientID, op string, amount, held decimal.Decimal) *Error {
	return &Error{
		Code:   CodeInsufficientHeld,
		Client: id,
		Message: fmt.Sprintf("client %d cannot %s %s as held amount is %s",
			id, op, amount, held),
	}
}

// NewDuplicateTransaction reports a reused transaction id.
func NewDuplicateTransaction(tx TxID) *Error {
	return &Error{
		Code:    CodeDuplicateTransaction,
		Tx:      tx,
		Message: fmt.Sprintf("transaction %d already exists", tx),
	}
}

func errTransactionNotFound(tx TxID) *Error {
	return &Error{
		Code:    CodeTransactionNotFound,
		Tx:      tx,
		Message: fmt.Sprintf("transaction %d does not exist", tx),
	}
}

func errWrongClient(tx TxID, claimed ClientID) *Error {
	return &Error{
		Code:    CodeWrongClient,
		Client:  claimed,
		Tx:      tx,
		Message: fmt.Sprintf("transaction %d is not for client %d", tx, claimed),
	}
}

// NewMissingAmount reports a deposit or withdrawal record without an amount.
func NewMissingAmount(kind Kind, tx TxID) *Error {
	return &Error{
		Code:    CodeMissingAmount,
		Tx:      tx,
		Message: fmt.Sprintf("%s transaction %d missing amount field", kind, tx),
	}
}

// NewNotADeposit reports a dispute against a non-deposit transaction.
func NewNotADeposit(tx TxID) *Error {
	return &Error{
		Code:    CodeNotADeposit,
		Tx:      tx,
		Message: fmt.Sprintf("transaction %d cannot be disputed as it is not a deposit", tx),
	}
}

// NewAlreadyDisputed reports a dispute against a transaction already under
// dispute.
func NewAlreadyDisputed(tx TxID) *Error {
	return &Error{
		Code:    CodeAlreadyDisputed,
		Tx:      tx,
		Message: fmt.Sprintf("transaction %d is already in dispute", tx),
	}
}

// NewNotDisputed reports a resolve or chargeback against a transaction that
// is not under dispute. op names the attempted operation.
func NewNotDisputed(op string, tx TxID) *Error {
	return &Error{
		Code:    CodeNotDisputed,
		Tx:      tx,
		Message: fmt.Sprintf("transaction %d cannot be %s as it is not in dispute", tx, op),
	}
}
