package progress

import (
	"context"
	"strconv"
	"sync"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Coordinator tracks the linear compile phase machine and the sub-step
// counters within it, driven by container output lines (spec §4.8).
//
// Big phase boundaries (Initializing/CacheSetup/WorkspaceSetup/...) are
// advanced explicitly by the caller via Transition, since they correspond
// to driver-level workflow stages rather than anything visible in
// container output. Line-pattern matches only ever refine counters
// within the current phase, except for BuildStart, which is the one
// pattern that itself signals a phase boundary (DependencyFetch →
// Building) per spec §4.8.
type Coordinator struct {
	mu       sync.Mutex
	patterns Patterns
	phase    Phase
	counters Counters

	onPhaseChange PhaseChangeFunc
	onUpdate      UpdateFunc
}

// New builds a Coordinator for the given keyboard keymap configuration.
func New(cfg model.KeymapConfig, onPhaseChange PhaseChangeFunc, onUpdate UpdateFunc) (*Coordinator, error) {
	patterns, err := CompilePatterns(cfg)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		patterns:      patterns,
		phase:         PhaseIdle,
		onPhaseChange: onPhaseChange,
		onUpdate:      onUpdate,
	}, nil
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Counters returns a snapshot of the current sub-step counters.
func (c *Coordinator) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

// Transition moves the machine to an explicit phase boundary. It is a
// no-op (returns false) if to is not strictly after the current phase,
// so callers can call it unconditionally at each workflow stage without
// risking the enum running backwards on a retried step.
func (c *Coordinator) Transition(to Phase) bool {
	c.mu.Lock()
	from := c.phase
	if !after(from, to) {
		c.mu.Unlock()
		return false
	}
	c.phase = to
	counters := c.counters
	c.mu.Unlock()

	if c.onPhaseChange != nil {
		c.onPhaseChange(from, to)
	}
	if c.onUpdate != nil {
		c.onUpdate(Event{Phase: to, Counters: counters})
	}
	return true
}

// Fail transitions the machine to Failed, regardless of current phase.
func (c *Coordinator) Fail() {
	c.Transition(PhaseFailed)
}

// CheckCancelled observes ctx and, if it has been cancelled, transitions
// to Failed and returns true. Callers are expected to call this at phase
// boundaries and before blocking I/O (spec §4.8 "Cancellation").
func (c *Coordinator) CheckCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		c.Fail()
		return true
	default:
		return false
	}
}

// CancelledErr returns xerrors.ErrCancelled if ctx has been cancelled,
// transitioning the machine to Failed as a side effect; nil otherwise.
func (c *Coordinator) CancelledErr(ctx context.Context) error {
	if c.CheckCancelled(ctx) {
		return xerrors.ErrCancelled.WithMessage("compilation cancelled")
	}
	return nil
}

// ProcessLine matches one line of container output against the
// configured patterns, updating counters and, for a BuildStart match,
// advancing the phase to Building.
func (c *Coordinator) ProcessLine(line string) {
	c.mu.Lock()

	switch {
	case c.patterns.BuildStart.MatchString(line):
		c.mu.Unlock()
		c.Transition(PhaseBuilding)
		c.mu.Lock()

	case c.patterns.RepoDownload.MatchString(line):
		c.counters.FilesTransferred++

	case c.patterns.BuildProgress.MatchString(line):
		if m := c.patterns.BuildProgress.FindStringSubmatch(line); len(m) == 3 {
			c.counters.BuildStepsCompleted = atoiOr(m[1], c.counters.BuildStepsCompleted)
			c.counters.BuildStepsTotal = atoiOr(m[2], c.counters.BuildStepsTotal)
		}

	case c.patterns.BuildComplete.MatchString(line):
		// marks the end of one board's build; counted via BoardComplete.

	case c.patterns.BoardDetection.MatchString(line):
		c.counters.BoardsDetected++

	case c.patterns.BoardComplete.MatchString(line):
		c.counters.BoardsCompleted++

	case gitReceivingObjectsPattern.MatchString(line):
		if m := gitReceivingObjectsPattern.FindStringSubmatch(line); len(m) >= 4 {
			c.counters.TransferPercent = atoiOr(m[1], c.counters.TransferPercent)
			c.counters.FilesTransferred = atoiOr(m[2], c.counters.FilesTransferred)
			c.counters.FilesTotal = atoiOr(m[3], c.counters.FilesTotal)
			if len(m) == 5 && m[4] != "" {
				c.counters.TransferSpeed = m[4]
			}
		}

	case gitResolvingDeltasPattern.MatchString(line):
		if m := gitResolvingDeltasPattern.FindStringSubmatch(line); len(m) == 4 {
			c.counters.DeltasResolved = atoiOr(m[2], c.counters.DeltasResolved)
			c.counters.DeltasTotal = atoiOr(m[3], c.counters.DeltasTotal)
		}

	default:
		c.mu.Unlock()
		return
	}

	phase := c.phase
	counters := c.counters
	c.mu.Unlock()

	if c.onUpdate != nil {
		c.onUpdate(Event{Phase: phase, Line: line, Counters: counters})
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
