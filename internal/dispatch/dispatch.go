// Package dispatch serializes outbound upstream calls so the aggregate
// rate never exceeds the external quota, and retries transient failures
// with exponential backoff.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "pricewatch/internal/log"
)

// Mode selects how queued units reach the upstream.
type Mode int

const (
	// Strict drains the queue one unit at a time, FIFO, with at least
	// MinInterval between dispatch starts. Use against hard
	// per-second quotas.
	Strict Mode = iota
	// Capped runs up to Concurrency units per wave; the queue advances
	// wave by wave with MinInterval between wave starts. Use when the
	// quota tolerates short bursts.
	Capped
)

type Options struct {
	Mode        Mode
	MinInterval time.Duration // minimum gap between dispatch (or wave) starts
	Concurrency int           // wave width in Capped mode
	MaxAttempts int           // total attempts per unit, including the first
	BaseBackoff time.Duration // doubles after every failed attempt

	// Injectable clock and sleep, so tests can drive time.
	Now   func() time.Time
	Sleep func(time.Duration)
}

type unit struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// Dispatcher owns the queue and the last-dispatch timestamp. Construct
// one per upstream quota; there is deliberately no package-level
// instance.
type Dispatcher struct {
	opts    Options
	queue   chan *unit
	stop    chan struct{}
	done    chan struct{}
	closing sync.Once

	mu   sync.Mutex
	last time.Time
}

func New(opts Options) *Dispatcher {
	if opts.MinInterval <= 0 {
		opts.MinInterval = 1100 * time.Millisecond
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 500 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	d := &Dispatcher{
		opts:  opts,
		queue: make(chan *unit, 64),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

// Do submits one unit of work and blocks until it has either succeeded
// or exhausted its retries. A unit's failure never stops the queue;
// other submitted units keep going.
func (d *Dispatcher) Do(ctx context.Context, fn func(context.Context) error) error {
	u := &unit{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case <-d.stop:
		return fmt.Errorf("dispatcher closed")
	default:
	}
	select {
	case d.queue <- u:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stop:
		return fmt.Errorf("dispatcher closed")
	}
	select {
	case err := <-u.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for already-queued units to
// drain.
func (d *Dispatcher) Close() {
	d.closing.Do(func() { close(d.stop) })
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	if d.opts.Mode == Capped {
		d.runWaves()
		return
	}
	for {
		select {
		case u := <-d.queue:
			u.result <- d.attempt(u, true)
		case <-d.stop:
			d.drainStrict()
			return
		}
	}
}

func (d *Dispatcher) drainStrict() {
	for {
		select {
		case u := <-d.queue:
			u.result <- d.attempt(u, true)
		default:
			return
		}
	}
}

func (d *Dispatcher) runWaves() {
	for {
		wave, stopped := d.collectWave()
		if len(wave) == 0 {
			if stopped {
				return
			}
			continue
		}
		d.pace()
		var wg sync.WaitGroup
		for _, u := range wave {
			u := u
			wg.Add(1)
			go func() {
				defer wg.Done()
				// The wave start is already paced; retries within a
				// unit only back off.
				u.result <- d.attempt(u, false)
			}()
		}
		wg.Wait()
	}
}

// collectWave blocks for the first unit, then greedily takes whatever
// else is already queued, up to the wave width. After Close it stops
// blocking and returns only what is already buffered.
func (d *Dispatcher) collectWave() ([]*unit, bool) {
	var wave []*unit
	stopped := false
	select {
	case u := <-d.queue:
		wave = append(wave, u)
	case <-d.stop:
		stopped = true
	}
	for len(wave) < d.opts.Concurrency {
		select {
		case u := <-d.queue:
			wave = append(wave, u)
		default:
			return wave, stopped
		}
	}
	return wave, stopped
}

// attempt runs one unit to completion: up to MaxAttempts calls with
// doubling backoff between them. A 429 is just another failed attempt;
// it always gets the backoff-retry path rather than an immediate error.
func (d *Dispatcher) attempt(u *unit, paced bool) error {
	backoff := d.opts.BaseBackoff
	var err error
	for att := 1; att <= d.opts.MaxAttempts; att++ {
		if att > 1 {
			d.opts.Sleep(backoff)
			backoff *= 2
		}
		if cerr := u.ctx.Err(); cerr != nil {
			return cerr
		}
		if paced {
			d.pace()
		}
		if err = u.fn(u.ctx); err == nil {
			return nil
		}
		applog.OpError("dispatch.attempt", err, map[string]any{"attempt": att, "max": d.opts.MaxAttempts})
	}
	return fmt.Errorf("giving up after %d attempts: %w", d.opts.MaxAttempts, err)
}

// pace blocks until at least MinInterval has passed since the previous
// dispatch start, then records this one.
func (d *Dispatcher) pace() {
	d.mu.Lock()
	if wait := d.last.Add(d.opts.MinInterval).Sub(d.opts.Now()); wait > 0 {
		d.mu.Unlock()
		d.opts.Sleep(wait)
		d.mu.Lock()
	}
	d.last = d.opts.Now()
	d.mu.Unlock()
}
