package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	name   string
	got    []Payload
	err    error
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, p)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) payloads() []Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Payload(nil), s.got...)
}

type outcome struct {
	sink string
	err  error
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (r *fakeRecorder) AlertDelivered(sink string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome{sink, err})
}

var globalCtx = Context{Scope: domain.ScopeGlobal, Period: domain.PeriodDaily}

func TestDispatcherInlineBeforeStart(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	rec := &fakeRecorder{}
	d := NewDispatcher(false, rec, sink)

	n := d.Notify(context.Background(), globalCtx, []domain.Anomaly{
		anomaly(domain.SeverityHigh),
		anomaly(domain.AnomalySeverity("low")),
		anomaly(domain.SeverityMedium),
	})

	assert.Equal(t, 2, n)
	got := sink.payloads()
	require.Len(t, got, 2)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
	assert.Equal(t, domain.SeverityMedium, got[1].Severity)
	assert.Len(t, rec.outcomes, 2)
}

func TestDispatcherDevModeSendsNothing(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	d := NewDispatcher(true, nil, sink)

	assert.Equal(t, 0, d.Notify(context.Background(), globalCtx, []domain.Anomaly{anomaly(domain.SeverityHigh)}))
	assert.Empty(t, sink.payloads())
}

func TestDispatcherWithoutSinks(t *testing.T) {
	d := NewDispatcher(false, nil)
	assert.Equal(t, 0, d.Notify(context.Background(), globalCtx, []domain.Anomaly{anomaly(domain.SeverityHigh)}))

	var nilDispatcher *Dispatcher
	assert.Equal(t, 0, nilDispatcher.Notify(context.Background(), globalCtx, nil))
}

func TestDispatcherFailingSinkDoesNotBlockOthers(t *testing.T) {
	bad := &recordingSink{name: "bad", err: errors.New("smtp down")}
	good := &recordingSink{name: "good"}
	rec := &fakeRecorder{}
	d := NewDispatcher(false, rec, bad, good)

	d.Notify(context.Background(), globalCtx, []domain.Anomaly{anomaly(domain.SeverityHigh)})

	assert.Len(t, good.payloads(), 1)
	require.Len(t, rec.outcomes, 2)
	assert.Equal(t, "bad", rec.outcomes[0].sink)
	assert.Error(t, rec.outcomes[0].err)
	assert.NoError(t, rec.outcomes[1].err)
}

func TestDispatcherAsyncDrainsOnStop(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	d := NewDispatcher(false, nil, sink)
	require.NoError(t, d.Start(context.Background()))

	anomalies := make([]domain.Anomaly, 10)
	for i := range anomalies {
		anomalies[i] = anomaly(domain.SeverityHigh)
	}
	assert.Equal(t, 10, d.Notify(context.Background(), globalCtx, anomalies))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	assert.Len(t, sink.payloads(), 10)
	assert.True(t, sink.closed)
}

func TestDispatcherDropsAfterStop(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	d := NewDispatcher(false, nil, sink)
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 0, d.Notify(context.Background(), globalCtx, []domain.Anomaly{anomaly(domain.SeverityHigh)}))
	assert.Empty(t, sink.payloads(), "closed sinks receive nothing")
	assert.Error(t, d.Start(context.Background()))
}

func TestDispatcherConcurrentNotifyAndStop(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	d := NewDispatcher(false, nil, sink)
	require.NoError(t, d.Start(context.Background()))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := d.Notify(context.Background(), globalCtx, []domain.Anomaly{anomaly(domain.SeverityHigh)})
			mu.Lock()
			accepted += n
			mu.Unlock()
		}()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	wg.Wait()

	assert.Len(t, sink.payloads(), accepted, "every accepted payload is delivered")
}

func TestDispatcherStartRejectsNilContext(t *testing.T) {
	d := NewDispatcher(false, nil)
	assert.Error(t, d.Start(nil))
}

func TestDispatcherSinks(t *testing.T) {
	d := NewDispatcher(false, nil, LogSink{}, &recordingSink{name: "rec"})
	assert.Equal(t, []string{"log", "rec"}, d.Sinks())
}

func TestLogSink(t *testing.T) {
	p := BuildPayload(anomaly(domain.SeverityHigh), globalCtx)
	assert.NoError(t, LogSink{}.Send(context.Background(), p))
}
