package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ClientID is the unsigned 16-bit client identifier from the input stream.
type ClientID uint16

// Account holds the balance state for a single client.
type Account struct {
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// Total returns available + held.
func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Summary is a read-only snapshot row for one client, used by the exporters.
type Summary struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// AccountStore owns one account per client id. All mutations go through its
// methods and either fully apply or leave the account untouched; the only
// exception is Chargeback's lock, which sticks even when the held-amount
// check fails.
type AccountStore struct {
	accounts map[ClientID]*Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[ClientID]*Account),
	}
}

// Deposit credits available funds, creating the account on first use.
func (s *AccountStore) Deposit(id ClientID, amount decimal.Decimal) error {
	acct, ok := s.accounts[id]
	if !ok {
		acct = &Account{Available: decimal.Zero, Held: decimal.Zero}
		s.accounts[id] = acct
	}
	if acct.Locked {
		return errClientLocked(id)
	}

	acct.Available = acct.Available.Add(amount)
	return nil
}

// Withdraw debits available funds. The account must exist, be unlocked, and
// have at least amount available.
func (s *AccountStore) Withdraw(id ClientID, amount decimal.Decimal) error {
	acct, ok := s.accounts[id]
	if !ok {
		return errClientNotFound(id)
	}
	if acct.Locked {
		return errClientLocked(id)
	}

	next := acct.Available.Sub(amount)
	if next.IsNegative() {
		return errInsufficientAvailable(id, "withdraw", amount, acct.Available)
	}

	acct.Available = next
	return nil
}

// Hold moves funds from available to held for an open dispute. A dispute
// cannot hold more than is currently available: if the funds were already
// spent, the dispute is rejected rather than queued.
func (s *AccountStore) Hold(id ClientID, amount decimal.Decimal) error {
	acct, ok := s.accounts[id]
	if !ok {
		return errClientNotFound(id)
	}
	if acct.Locked {
		return errClientLocked(id)
	}

	next := acct.Available.Sub(amount)
	if next.IsNegative() {
		return errInsufficientAvailable(id, "dispute", amount, acct.Available)
	}

	acct.Available = next
	acct.Held = acct.Held.Add(amount)
	return nil
}

// Release moves funds from held back to available when a dispute resolves.
func (s *AccountStore) Release(id ClientID, amount decimal.Decimal) error {
	acct, ok := s.accounts[id]
	if !ok {
		return errClientNotFound(id)
	}
	if acct.Locked {
		return errClientLocked(id)
	}

	next := acct.Held.Sub(amount)
	if next.IsNegative() {
		return errInsufficientHeld(id, "resolve", amount, acct.Held)
	}

	acct.Held = next
	acct.Available = acct.Available.Add(amount)
	return nil
}

// Chargeback removes held funds and locks the account. The lock is applied
// before the held-amount check and is never rolled back: a chargeback marks
// the account as compromised even when its bookkeeping fails.
func (s *AccountStore) Chargeback(id ClientID, amount decimal.Decimal) error {
	acct, ok := s.accounts[id]
	if !ok {
		return errClientNotFound(id)
	}
	if acct.Locked {
		return errClientLocked(id)
	}

	acct.Locked = true

	next := acct.Held.Sub(amount)
	if next.IsNegative() {
		return errInsufficientHeld(id, "chargeback", amount, acct.Held)
	}

	acct.Held = next
	return nil
}

// Get returns a copy of the account for id.
func (s *AccountStore) Get(id ClientID) (Account, bool) {
	acct, ok := s.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

// Len returns the number of known clients.
func (s *AccountStore) Len() int {
	return len(s.accounts)
}

// Summaries returns one snapshot row per known client, ordered by client id
// so repeated exports of the same state are byte-identical.
func (s *AccountStore) Summaries() []Summary {
	out := make([]Summary, 0, len(s.accounts))
	for id, acct := range s.accounts {
		out = append(out, Summary{
			Client:    id,
			Available: acct.Available,
			Held:      acct.Held,
			Total:     acct.Total(),
			Locked:    acct.Locked,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Client < out[j].Client
	})

	return out
}
