// Package processor orchestrates one processing run: decode the input
// stream, apply each record in order, report rejections, and export the
// final account snapshot.
package processor

import (
	"PayLedger/internal/engine"
	"PayLedger/internal/event"
	"PayLedger/internal/export"
	"PayLedger/internal/ingestion"
	"PayLedger/internal/ledger"
	"PayLedger/internal/observability"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AppliedPublisher receives one event per successfully applied record.
type AppliedPublisher interface {
	Publish(ctx context.Context, evt event.TransactionApplied) error
}

// Stats summarizes a completed run.
type Stats struct {
	Applied  int64
	Rejected int64
}

// Processor drives the engine over a decoded record stream. Every rejection
// is local to its record: it is written to the error stream and the run
// continues with state unchanged.
type Processor struct {
	engine    *engine.Engine
	log       zerolog.Logger
	metrics   *observability.Metrics
	publisher AppliedPublisher
}

// New creates a Processor around eng. metrics and publisher may be nil.
func New(eng *engine.Engine, log zerolog.Logger, metrics *observability.Metrics, publisher AppliedPublisher) *Processor {
	return &Processor{
		engine:    eng,
		log:       log,
		metrics:   metrics,
		publisher: publisher,
	}
}

// Process consumes the whole input, applying records one at a time in input
// order. Per-record failures are written to errOut, one line each. The run
// only fails as a whole when the input has no usable header or the context
// is cancelled.
func (p *Processor) Process(ctx context.Context, input io.Reader, errOut io.Writer) (Stats, error) {
	reader, err := ingestion.NewReader(input)
	if err != nil {
		return Stats{}, fmt.Errorf("open input stream: %w", err)
	}

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Rejected++
			p.reject(errOut, "", "decode_failure", err)
			continue
		}

		start := time.Now()
		if err := p.engine.Apply(rec); err != nil {
			stats.Rejected++
			p.reject(errOut, rec.Type.String(), string(ledger.CodeOf(err)), err)
			continue
		}
		stats.Applied++

		p.applied(ctx, rec, time.Since(start))
	}

	p.log.Info().
		Int64("applied", stats.Applied).
		Int64("rejected", stats.Rejected).
		Int("clients", p.engine.ClientCount()).
		Int("transactions", p.engine.TransactionCount()).
		Msg("input consumed")

	return stats, nil
}

// Export writes the final account snapshot to w.
func (p *Processor) Export(w io.Writer) error {
	return export.WriteAccounts(w, p.engine.Accounts())
}

// Snapshot returns the final account rows, ordered by client id.
func (p *Processor) Snapshot() []ledger.Summary {
	return p.engine.Accounts()
}

func (p *Processor) reject(errOut io.Writer, recordType, reason string, err error) {
	if _, werr := fmt.Fprintf(errOut, "error: %v\n", err); werr != nil {
		p.log.Warn().Err(werr).Msg("write to error stream failed")
	}

	p.log.Debug().
		Str("type", recordType).
		Str("reason", reason).
		Msg(err.Error())

	if p.metrics != nil {
		if recordType == "" {
			recordType = "unknown"
		}
		p.metrics.RecordsRejected.WithLabelValues(recordType, reason).Inc()
	}
}

func (p *Processor) applied(ctx context.Context, rec event.Record, elapsed time.Duration) {
	recordType := rec.Type.String()

	if p.metrics != nil {
		p.metrics.RecordsApplied.WithLabelValues(recordType).Inc()
		p.metrics.ApplyDuration.WithLabelValues(recordType).Observe(elapsed.Seconds())
		p.metrics.AccountsTracked.Set(float64(p.engine.ClientCount()))

		switch rec.Type {
		case event.RecordDispute:
			p.metrics.DisputesOpen.Inc()
		case event.RecordResolve:
			p.metrics.DisputesOpen.Dec()
		case event.RecordChargeback:
			p.metrics.DisputesOpen.Dec()
			p.metrics.AccountsLocked.Inc()
		}
	}

	if p.publisher == nil {
		return
	}

	acct, _ := p.engine.Account(rec.Client)
	amount := decimal.Zero
	if rec.Amount.Valid {
		amount = rec.Amount.Decimal
	}

	evt := event.TransactionApplied{
		EventID:    uuid.New(),
		Type:       recordType,
		Client:     uint16(rec.Client),
		Tx:         uint32(rec.Tx),
		Amount:     amount,
		Available:  acct.Available,
		Held:       acct.Held,
		Locked:     acct.Locked,
		OccurredAt: time.Now().UTC(),
	}

	// Outbound events are best-effort; a broker hiccup must not stall the
	// stream.
	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.log.Warn().Err(err).Uint32("tx", evt.Tx).Msg("outbound publish failed")
		if p.metrics != nil {
			p.metrics.PublishFailures.Inc()
		}
		return
	}
	if p.metrics != nil {
		p.metrics.EventsPublished.Inc()
	}
}
