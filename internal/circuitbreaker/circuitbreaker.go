package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

var logger = log.New(os.Stdout, "BREAKER: ", log.LstdFlags|log.Lshortfile)

// Circuit breaker errors
var (
	ErrTooManyRequests = errors.New("too many requests")
	ErrOpen            = errors.New("circuit breaker is open")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("unknown state: %d", s)
	}
}

type Settings struct {
	Name        string
	MaxRequests uint32
	// Interval is how often the closed-state counts are cleared.
	Interval      time.Duration
	Timeout       time.Duration
	ReadyToTrip   func(counts Counts) bool
	OnStateChange func(name string, from State, to State)
	// IsFailure decides which errors count against the breaker. Nil counts all.
	IsFailure func(err error) bool
}

type Counts struct {
	Requests      uint32
	TotalFailures uint32
	Failures      uint32
	Successes     uint32
}

type Breaker struct {
	name          string
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	readyToTrip   func(counts Counts) bool
	onStateChange func(name string, from State, to State)
	isFailure     func(err error) bool
	now           func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			failureRatio := float64(counts.Failures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from State, to State) {
			logger.Printf("circuit breaker %q changed from %s to %s", name, from, to)
		},
	}
}

func New(settings Settings) *Breaker {
	b := &Breaker{
		name:          settings.Name,
		maxRequests:   settings.MaxRequests,
		interval:      settings.Interval,
		timeout:       settings.Timeout,
		readyToTrip:   settings.ReadyToTrip,
		onStateChange: settings.OnStateChange,
		isFailure:     settings.IsFailure,
		now:           time.Now,
	}

	if b.maxRequests == 0 {
		b.maxRequests = 1
	}
	if b.interval == 0 {
		b.interval = 60 * time.Second
	}
	if b.timeout == 0 {
		b.timeout = 60 * time.Second
	}
	if b.readyToTrip == nil {
		b.readyToTrip = func(counts Counts) bool { return counts.Failures > 5 }
	}
	b.expiry = b.now().Add(b.interval)

	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(b.now())
	return b.state
}

// Execute runs fn unless the breaker is open. A cancelled context is returned
// without calling fn and without counting as a failure.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	generation, err := b.beforeRequest()
	if err != nil {
		return err
	}

	defer func() {
		if e := recover(); e != nil {
			b.afterRequest(generation, false)
			panic(e)
		}
	}()

	err = fn()
	b.afterRequest(generation, !b.countsAsFailure(err))
	return err
}

func (b *Breaker) countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if b.isFailure != nil {
		return b.isFailure(err)
	}
	return true
}

func (b *Breaker) beforeRequest() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.rollover(now)

	switch b.state {
	case StateOpen:
		return 0, ErrOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.maxRequests {
			return 0, ErrTooManyRequests
		}
	}
	b.counts.Requests++
	return b.generation, nil
}

func (b *Breaker) afterRequest(generation uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.rollover(now)
	if b.generation != generation {
		return
	}

	if success {
		b.onSuccess(now)
	} else {
		b.onFailure(now)
	}
}

// rollover moves an expired open breaker to half-open and clears stale
// closed-state counts. Callers hold mu.
func (b *Breaker) rollover(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.expiry) {
			b.newGeneration(now)
		}
	case StateOpen:
		if now.After(b.expiry) {
			b.setState(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) onSuccess(now time.Time) {
	switch b.state {
	case StateClosed:
		b.counts.Successes++
	case StateHalfOpen:
		b.counts.Successes++
		if b.counts.Successes >= b.maxRequests {
			b.setState(StateClosed, now)
		}
	}
}

func (b *Breaker) onFailure(now time.Time) {
	switch b.state {
	case StateClosed:
		b.counts.Failures++
		b.counts.TotalFailures++
		if b.readyToTrip(b.counts) {
			b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		b.setState(StateOpen, now)
	}
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.newGeneration(now)

	if b.onStateChange != nil {
		b.onStateChange(b.name, prev, state)
	}
}

func (b *Breaker) newGeneration(now time.Time) {
	b.generation++
	b.counts = Counts{}

	switch b.state {
	case StateClosed:
		b.expiry = now.Add(b.interval)
	case StateOpen:
		b.expiry = now.Add(b.timeout)
	default:
		b.expiry = time.Time{}
	}
}

// IsBreakerError reports whether err was produced by the breaker itself,
// rather than by the protected call.
func IsBreakerError(err error) bool {
	return errors.Is(err, ErrOpen) || errors.Is(err, ErrTooManyRequests)
}

// HTTPStatus maps a breaker error to the status a handler should answer with.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrOpen):
		return http.StatusServiceUnavailable, "Service is temporarily unavailable"
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "Too many requests"
	}
	return http.StatusInternalServerError, "Internal server error"
}
