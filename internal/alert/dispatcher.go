package alert

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

const dispatchQueueSize = 256

// Sink delivers one payload.
type Sink interface {
	Name() string
	Send(ctx context.Context, p Payload) error
}

// Recorder counts delivery outcomes per sink.
type Recorder interface {
	AlertDelivered(sink string, err error)
}

type dispatchState int

const (
	stateIdle dispatchState = iota
	stateRunning
	stateStopped
)

// Dispatcher applies the alert policy and fans payloads out to its sinks.
// Once started, delivery happens on a background worker; before Start (and
// in one-shot tools) it is inline. After Stop, payloads are dropped.
// Delivery errors are logged, never returned.
type Dispatcher struct {
	sinks    []Sink
	devMode  bool
	recorder Recorder

	// mu guards state. Notify holds it shared while enqueueing or delivering
	// inline, so Stop never closes sinks under an in-flight send.
	mu    sync.RWMutex
	state dispatchState

	queue    chan Payload
	runCtx   context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(devMode bool, recorder Recorder, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:    sinks,
		devMode:  devMode,
		recorder: recorder,
		queue:    make(chan Payload, dispatchQueueSize),
	}
}

// Sinks returns the configured sink names.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context must not be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case stateRunning:
		return nil
	case stateStopped:
		return errors.New("alert dispatcher already stopped")
	}
	d.runCtx, d.cancel = context.WithCancel(ctx)
	d.state = stateRunning
	d.wg.Add(1)
	go d.run()
	log.Info().Strs("sinks", d.Sinks()).Msg("alert: dispatcher started")
	return nil
}

// Stop drains queued payloads, then closes sinks that hold resources.
func (d *Dispatcher) Stop(ctx context.Context) error {
	var stopErr error
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.state = stateStopped
		cancel := d.cancel
		d.mu.Unlock()

		// Nothing is enqueued past this point, so the drain sees every payload.
		if cancel != nil {
			cancel()
		}
		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = ctx.Err()
		}
		for _, s := range d.sinks {
			if c, ok := s.(interface{ Close() error }); ok {
				if err := c.Close(); err != nil {
					log.Error().Err(err).Str("sink", s.Name()).Msg("alert: sink close failed")
				}
			}
		}
		log.Info().Msg("alert: dispatcher stopped")
	})
	return stopErr
}

// Notify offers each anomaly to the policy and delivers the ones that pass.
// It returns how many payloads were accepted for delivery.
func (d *Dispatcher) Notify(ctx context.Context, c Context, anomalies []domain.Anomaly) int {
	if d == nil || len(d.sinks) == 0 {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	accepted := 0
	for _, a := range anomalies {
		if !ShouldNotify(a, d.devMode) {
			continue
		}
		p := BuildPayload(a, c)
		switch d.state {
		case stateStopped:
			log.Warn().Str("key", p.key()).Str("date", p.Date).Msg("alert: dispatcher stopped, dropping payload")
			continue
		case stateIdle:
			d.deliver(ctx, p)
			accepted++
			continue
		}
		select {
		case d.queue <- p:
			accepted++
		default:
			log.Warn().Str("key", p.key()).Str("date", p.Date).Msg("alert: queue full, dropping payload")
		}
	}
	return accepted
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.runCtx.Done():
			d.drain()
			return
		case p := <-d.queue:
			d.deliver(d.runCtx, p)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case p := <-d.queue:
			// the run context is already cancelled
			d.deliver(context.Background(), p)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, p Payload) {
	for _, s := range d.sinks {
		err := s.Send(ctx, p)
		if d.recorder != nil {
			d.recorder.AlertDelivered(s.Name(), err)
		}
		if err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Str("key", p.key()).Str("date", p.Date).Msg("alert: delivery failed")
		}
	}
}

// LogSink writes payloads to the service log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(_ context.Context, p Payload) error {
	log.Warn().
		Str("severity", string(p.Severity)).
		Str("scope", string(p.Scope)).
		Str("key", p.key()).
		Str("period", string(p.Period)).
		Str("date", p.Date).
		Float64("value", p.Value).
		Float64("score", p.Score).
		Str("type", string(p.Type)).
		Msg("anomaly detected")
	return nil
}
