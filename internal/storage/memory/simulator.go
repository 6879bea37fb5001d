// Package memory provides in-process repositories and services that stand
// in for remote backends. Every call can be delayed and failed at random to
// reproduce the behaviour of a slow, unreliable network.
package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// ErrSimulatedFailure is returned when the simulator injects a failure.
var ErrSimulatedFailure = errors.New("simulated backend failure")

// SimulationConfig controls injected latency and failures.
type SimulationConfig struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FailureRate float64
}

// Simulator injects latency and failures. A nil Simulator does nothing.
type Simulator struct {
	cfg SimulationConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a Simulator with a random seed.
func NewSimulator(cfg SimulationConfig) *Simulator {
	return NewSeededSimulator(cfg, rand.Uint64())
}

// NewSeededSimulator creates a Simulator with a fixed seed.
func NewSeededSimulator(cfg SimulationConfig, seed uint64) *Simulator {
	if cfg.MaxLatency < cfg.MinLatency {
		cfg.MaxLatency = cfg.MinLatency
	}
	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Do waits for a random latency in [MinLatency, MaxLatency] and then fails
// with ErrSimulatedFailure with probability FailureRate. It returns the
// context error if ctx is done first.
func (s *Simulator) Do(ctx context.Context) error {
	if s == nil {
		return nil
	}

	delay, fail := s.roll()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if fail {
		return ErrSimulatedFailure
	}
	return nil
}

func (s *Simulator) roll() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.cfg.MinLatency
	if span := s.cfg.MaxLatency - s.cfg.MinLatency; span > 0 {
		delay += time.Duration(s.rng.Int64N(int64(span) + 1))
	}
	return delay, s.rng.Float64() < s.cfg.FailureRate
}
