package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Step is a stage of the checkout sequence.
type Step int

const (
	StepAddress Step = iota
	StepShipping
	StepPayment
	StepReview

	stepCount = int(StepReview) + 1
)

var stepNames = [stepCount]string{"address", "shipping", "payment", "review"}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is one of the defined steps.
func (s Step) Valid() bool {
	return s >= StepAddress && s <= StepReview
}

// ErrStepOutOfRange is returned when navigating to an undefined step.
var ErrStepOutOfRange = errors.New("step out of range")

// StepBlockedError is returned when forward navigation is attempted while
// the current step is not valid.
type StepBlockedError struct {
	Current Step
	Target  Step
}

func (e *StepBlockedError) Error() string {
	return fmt.Sprintf("cannot advance to %s: %s step is not complete", e.Target, e.Current)
}

// Stepper is the checkout step state machine. Moving to the current or an
// earlier step always succeeds; moving forward requires the current step
// to be marked valid.
type Stepper struct {
	Current Step            `json:"current"`
	Valid   [stepCount]bool `json:"valid"`
}

// GoTo moves to step n.
func (s *Stepper) GoTo(n Step) error {
	if !n.Valid() {
		return ErrStepOutOfRange
	}
	if n > s.Current && !s.Valid[s.Current] {
		return &StepBlockedError{Current: s.Current, Target: n}
	}
	s.Current = n
	return nil
}

// Next advances by one step.
func (s *Stepper) Next() error {
	return s.GoTo(s.Current + 1)
}

// Back moves one step back.
func (s *Stepper) Back() error {
	return s.GoTo(s.Current - 1)
}

// SetValid records the validity of step.
func (s *Stepper) SetValid(step Step, ok bool) {
	if step.Valid() {
		s.Valid[step] = ok
	}
}

// IsValid reports the recorded validity of step.
func (s *Stepper) IsValid(step Step) bool {
	return step.Valid() && s.Valid[step]
}

// CompleteThrough reports whether every step before last is valid.
func (s *Stepper) CompleteThrough(last Step) bool {
	for st := StepAddress; st < last; st++ {
		if !s.Valid[st] {
			return false
		}
	}
	return true
}
