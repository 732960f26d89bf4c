package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordStep("jobA", "extract_catalog", nil, 2*time.Second)
	RecordStep("jobB", "write_songplays", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls: counters=%d histograms=%d, want 2/2", len(fb.counters), len(fb.histograms))
	}

	cc0 := fb.counters[0]
	if cc0.name != "pipeline_step_total" || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v", cc0)
	}
	if cc0.labels["step"] != "extract_catalog" || cc0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels = %#v", cc0.labels)
	}

	cc1 := fb.counters[1]
	if cc1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels = %#v", cc1.labels)
	}
	if fb.histograms[1].value != 1.5 {
		t.Fatalf("histogram[1].value = %v, want 1.5", fb.histograms[1].value)
	}
}

func TestRecordRows(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRows("job", "songplays", "matched", 42)
	RecordRows("job", "songplays", "unmatched", 0)  // no-op
	RecordRows("job", "songplays", "dropped_ts", -1) // no-op

	if len(fb.counters) != 1 {
		t.Fatalf("counters = %d, want 1 (zero/negative deltas are dropped)", len(fb.counters))
	}
	c := fb.counters[0]
	if c.name != "pipeline_rows_total" || c.delta != 42 {
		t.Fatalf("counter = %#v", c)
	}
	if c.labels["relation"] != "songplays" || c.labels["kind"] != "matched" {
		t.Fatalf("labels = %#v", c.labels)
	}
}

func TestSetBackendNilKeepsExisting(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	SetBackend(nil)

	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1 (nil must not replace the backend)", fb.flushCount)
	}
}
