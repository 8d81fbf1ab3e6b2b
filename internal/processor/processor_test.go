package processor_test

import (
	"PayLedger/internal/engine"
	"PayLedger/internal/event"
	"PayLedger/internal/observability"
	"PayLedger/internal/processor"
	"PayLedger/internal/testutil"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type capturingPublisher struct {
	events []event.TransactionApplied
	fail   bool
}

func (c *capturingPublisher) Publish(_ context.Context, evt event.TransactionApplied) error {
	if c.fail {
		return context.DeadlineExceeded
	}
	c.events = append(c.events, evt)
	return nil
}

func newProcessor(pub processor.AppliedPublisher) *processor.Processor {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return processor.New(engine.New(), zerolog.Nop(), metrics, pub)
}

func run(t *testing.T, p *processor.Processor, input string) (processor.Stats, string, string) {
	t.Helper()

	var errOut, summary bytes.Buffer
	stats, err := p.Process(context.Background(), strings.NewReader(input), &errOut)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Export(&summary); err != nil {
		t.Fatalf("export: %v", err)
	}
	return stats, errOut.String(), summary.String()
}

func TestProcessor_BasicRun(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,1.0\n" +
		"deposit,2,2,2.0\n" +
		"deposit,1,3,2.0\n" +
		"withdrawal,1,4,1.5\n" +
		"withdrawal,2,5,3.0\n"

	p := newProcessor(nil)
	stats, errLines, summary := run(t, p, input)

	if stats.Applied != 4 || stats.Rejected != 1 {
		t.Errorf("stats: got %+v, want applied=4 rejected=1", stats)
	}

	// The over-withdrawal from client 2 is reported and skipped.
	if !strings.HasPrefix(errLines, "error: ") {
		t.Errorf("error stream: got %q", errLines)
	}
	if n := strings.Count(errLines, "\n"); n != 1 {
		t.Errorf("error stream should have 1 line, got %d: %q", n, errLines)
	}

	testutil.AssertGolden(t, "basic_run_summary.csv", []byte(summary))
}

func TestProcessor_DisputeLifecycleRun(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,55,101.95\n" +
		"dispute,1,55,\n" +
		"resolve,1,55,\n" +
		"resolve,1,55,\n" + // not disputed anymore
		"dispute,1,55,\n" +
		"chargeback,1,55,\n" +
		"deposit,1,56,10\n" // account is locked

	p := newProcessor(nil)
	stats, errLines, summary := run(t, p, input)

	if stats.Applied != 5 || stats.Rejected != 2 {
		t.Errorf("stats: got %+v, want applied=5 rejected=2", stats)
	}
	if n := strings.Count(errLines, "\n"); n != 2 {
		t.Errorf("error stream should have 2 lines, got %d: %q", n, errLines)
	}

	want := "client,available,held,total,locked\n1,0,0,0,true\n"
	if summary != want {
		t.Errorf("summary:\n--- got ---\n%s--- want ---\n%s", summary, want)
	}
}

func TestProcessor_MalformedRowsContinue(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,5\n" +
		"teleport,1,2,5\n" +
		"deposit,one,3,5\n" +
		"deposit,1,4,5\n"

	p := newProcessor(nil)
	stats, errLines, summary := run(t, p, input)

	if stats.Applied != 2 || stats.Rejected != 2 {
		t.Errorf("stats: got %+v, want applied=2 rejected=2", stats)
	}
	if n := strings.Count(errLines, "\n"); n != 2 {
		t.Errorf("error stream should have 2 lines, got %d: %q", n, errLines)
	}

	want := "client,available,held,total,locked\n1,10,0,10,false\n"
	if summary != want {
		t.Errorf("summary:\n--- got ---\n%s--- want ---\n%s", summary, want)
	}
}

func TestProcessor_PublishesAppliedEvents(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,5\n" +
		"withdrawal,1,2,2\n" +
		"withdrawal,1,3,99\n" // rejected, no event

	pub := &capturingPublisher{}
	p := newProcessor(pub)
	stats, _, _ := run(t, p, input)

	if stats.Applied != 2 {
		t.Fatalf("stats: got %+v", stats)
	}
	if len(pub.events) != 2 {
		t.Fatalf("got %d published events, want 2", len(pub.events))
	}

	evt := pub.events[1]
	if evt.Type != "withdrawal" || evt.Client != 1 || evt.Tx != 2 {
		t.Errorf("event identity: %+v", evt)
	}
	if evt.Available.String() != "3" {
		t.Errorf("event should carry post-apply available, got %s", evt.Available)
	}
	if evt.EventID == pub.events[0].EventID {
		t.Error("each event should get its own id")
	}
}

func TestProcessor_PublishFailureIsNonFatal(t *testing.T) {
	input := "type,client,tx,amount\ndeposit,1,1,5\n"

	p := newProcessor(&capturingPublisher{fail: true})
	stats, errLines, summary := run(t, p, input)

	if stats.Applied != 1 {
		t.Errorf("publish failure must not reject the record: %+v", stats)
	}
	if errLines != "" {
		t.Errorf("publish failure must not hit the error stream: %q", errLines)
	}
	if !strings.Contains(summary, "1,5,0,5,false") {
		t.Errorf("summary: %q", summary)
	}
}

func TestProcessor_NoHeader(t *testing.T) {
	p := newProcessor(nil)

	var errOut bytes.Buffer
	_, err := p.Process(context.Background(), strings.NewReader(""), &errOut)
	if err == nil {
		t.Fatal("headerless input should fail the run")
	}
}

func TestProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newProcessor(nil)
	var errOut bytes.Buffer
	_, err := p.Process(ctx, strings.NewReader("type,client,tx,amount\ndeposit,1,1,5\n"), &errOut)
	if err == nil {
		t.Fatal("cancelled context should stop the run")
	}
}
