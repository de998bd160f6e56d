package datasetkit

import (
	"context"
	"sync"

	"github.com/gobeaver/datasetkit/datasetvalidator"
)

// Phase is the workflow position of a Session
type Phase int

const (
	// PhaseIdle: no file chosen, or a new file chosen and not yet validated.
	PhaseIdle Phase = iota
	// PhaseLoading: acquisition of the chosen file is in flight.
	PhaseLoading
	// PhaseResolved: a verdict or an error is available.
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// State is a snapshot of a Session.
//
// Verdict and Err are only set in PhaseResolved, and never both.
type State struct {
	Phase      Phase
	Generation uint64
	File       string
	Verdict    *datasetvalidator.Verdict
	Err        error
}

// CheckFunc acquires and validates one file
type CheckFunc func(ctx context.Context, path string) (datasetvalidator.Verdict, error)

// Session holds the single current result of an interactive validation
// workflow. Every Select and Validate call starts a new generation; a result
// is applied only if its generation is still current, so a slow acquisition
// for a superseded file can never overwrite a newer result.
type Session struct {
	check CheckFunc

	mu      sync.Mutex
	state   State
	changed *CallbackChangeToken
}

// NewSession creates an idle session that runs check for each validation
func NewSession(check CheckFunc) *Session {
	return &Session{
		check:   check,
		changed: NewCallbackChangeToken(),
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Changes returns a token that fires on the next state transition
func (s *Session) Changes() ChangeToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Select chooses a file, clearing any previous verdict or error
func (s *Session) Select(path string) uint64 {
	s.mu.Lock()
	s.state = State{
		Phase:      PhaseIdle,
		Generation: s.state.Generation + 1,
		File:       path,
	}
	gen := s.state.Generation
	token := s.transitionLocked()
	s.mu.Unlock()

	token.SignalChange()
	return gen
}

// Validate starts validating the selected file and returns the generation
// tagging this run. With no file selected the session resolves immediately
// with ErrNoFile and no check runs.
func (s *Session) Validate(ctx context.Context) uint64 {
	s.mu.Lock()
	gen := s.state.Generation + 1
	file := s.state.File

	if file == "" {
		s.state = State{Phase: PhaseResolved, Generation: gen, Err: ErrNoFile}
		token := s.transitionLocked()
		s.mu.Unlock()
		token.SignalChange()
		return gen
	}

	s.state = State{Phase: PhaseLoading, Generation: gen, File: file}
	token := s.transitionLocked()
	s.mu.Unlock()
	token.SignalChange()

	go s.run(ctx, gen, file)
	return gen
}

func (s *Session) run(ctx context.Context, gen uint64, file string) {
	verdict, err := s.check(ctx, file)
	s.resolve(gen, file, verdict, err)
}

func (s *Session) resolve(gen uint64, file string, verdict datasetvalidator.Verdict, err error) {
	s.mu.Lock()
	if s.state.Generation != gen {
		current := s.state.Generation
		s.mu.Unlock()
		Logf("datasetkit: discarding stale result for %s (generation %d, current %d)", file, gen, current)
		return
	}

	next := State{Phase: PhaseResolved, Generation: gen, File: file}
	if err != nil {
		next.Err = err
	} else {
		v := verdict.Clone()
		next.Verdict = &v
	}
	s.state = next
	token := s.transitionLocked()
	s.mu.Unlock()

	token.SignalChange()
}

// transitionLocked swaps in a fresh change token and returns the spent one,
// to be signalled after the lock is released.
func (s *Session) transitionLocked() *CallbackChangeToken {
	spent := s.changed
	s.changed = NewCallbackChangeToken()
	return spent
}

// Wait blocks until generation gen is resolved or superseded and returns the
// state at that point.
func (s *Session) Wait(ctx context.Context, gen uint64) (State, error) {
	for {
		s.mu.Lock()
		state := s.state
		token := s.changed
		s.mu.Unlock()

		if state.Generation != gen || state.Phase == PhaseResolved {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-token.Done():
		}
	}
}
