// Package bisect narrows a range of versions to the single first-bad
// one by binary search over good/bad judgments, interactive or driven
// by an automated predicate. Sessions are scoped per artifact and
// persisted so a search survives process restarts.
package bisect

import (
	"time"

	"github.com/itisrmk/pit/pkg/core"
)

// State is the session lifecycle phase.
type State string

const (
	StateActive    State = "active"
	StateConverged State = "converged"
	StateAbandoned State = "abandoned"
)

// Verdict is a judgment on one version.
type Verdict string

const (
	VerdictGood Verdict = "good"
	VerdictBad  Verdict = "bad"
)

// Judgment is one recorded good/bad call.
type Judgment struct {
	Sequence int       `json:"sequence"`
	Verdict  Verdict   `json:"verdict"`
	At       time.Time `json:"at"`
}

// Session is the persisted bisect state machine for one artifact.
// Invariants while active: Low < High, Low < Current < High.
type Session struct {
	Artifact     string     `json:"artifact"`
	FailingInput string     `json:"failing_input"`
	State        State      `json:"state"`
	Low          int        `json:"low"`  // known good
	High         int        `json:"high"` // known bad
	Current      int        `json:"current,omitempty"`
	Judgments    []Judgment `json:"judgments"`
	StartedAt    time.Time  `json:"started_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	// FirstBad is set on convergence: the earliest bad sequence.
	FirstBad int `json:"first_bad,omitempty"`
}

// midpoint implements the tie-break policy: round down, biasing toward
// the lower half, so a search is reproducible given the same judgments.
// For low < high-1 the result is always strictly inside the interval.
func midpoint(low, high int) int {
	return low + (high-low)/2
}

// Remaining is the count of candidate sequences still in play.
func (s *Session) Remaining() int {
	if s.State != StateActive {
		return 0
	}
	return s.High - s.Low - 1
}

// mark applies a verdict at seq. Exact-boundary judgments that restate
// a known bound are redundant no-ops; judgments on already-excluded
// versions fail with the bounds that were valid at call time.
func (s *Session) mark(verdict Verdict, seq int, now time.Time) error {
	if s.State != StateActive {
		return core.ErrSessionNotActive
	}

	// Restating a bound adds nothing but is not a caller error.
	if (verdict == VerdictGood && seq == s.Low) || (verdict == VerdictBad && seq == s.High) {
		return nil
	}

	if seq <= s.Low || seq >= s.High {
		return &core.RangeError{Sequence: seq, Low: s.Low, High: s.High, Err: core.ErrOutOfRange}
	}

	s.Judgments = append(s.Judgments, Judgment{Sequence: seq, Verdict: verdict, At: now})

	if verdict == VerdictGood {
		s.Low = seq
	} else {
		s.High = seq
	}

	if s.High-s.Low == 1 {
		s.State = StateConverged
		s.FirstBad = s.High
		s.Current = 0
		t := now
		s.ClosedAt = &t
		return nil
	}

	s.Current = midpoint(s.Low, s.High)
	return nil
}
