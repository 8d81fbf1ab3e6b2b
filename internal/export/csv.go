// Package export encodes the final account snapshot as a tabular stream.
package export

import (
	"PayLedger/internal/ledger"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var header = []string{"client", "available", "held", "total", "locked"}

// WriteAccounts writes one row per account: client, available, held, total,
// locked. Decimal values keep full precision; callers get deterministic
// output when rows arrive sorted (AccountStore.Summaries sorts by client id).
func WriteAccounts(w io.Writer, accounts []ledger.Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, acct := range accounts {
		row := []string{
			strconv.FormatUint(uint64(acct.Client), 10),
			acct.Available.String(),
			acct.Held.String(),
			acct.Total.String(),
			strconv.FormatBool(acct.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for client %d: %w", acct.Client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
