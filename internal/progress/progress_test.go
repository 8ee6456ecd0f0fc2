package progress

import (
	"context"
	"testing"

	"github.com/caddyglow/glovebox/internal/model"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *[]Event) {
	t.Helper()
	var events []Event
	c, err := New(model.KeymapConfig{}, nil, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return c, &events
}

func TestTransitionAdvancesForwardOnly(t *testing.T) {
	c, _ := newTestCoordinator(t)
	if !c.Transition(PhaseCacheSetup) {
		t.Fatal("expected forward transition to succeed")
	}
	if c.Transition(PhaseInitializing) {
		t.Fatal("expected backward transition to be rejected")
	}
	if c.Phase() != PhaseCacheSetup {
		t.Fatalf("expected phase to remain CacheSetup, got %s", c.Phase())
	}
}

func TestFailReachableFromAnyPhase(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Transition(PhaseWorkspaceSetup)
	c.Fail()
	if c.Phase() != PhaseFailed {
		t.Fatalf("expected Failed, got %s", c.Phase())
	}
}

func TestProcessLineBuildStartAdvancesPhase(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Transition(PhaseDependencyFetch)
	c.ProcessLine("-- Build files have been written to: /workspace/build")
	if c.Phase() != PhaseBuilding {
		t.Fatalf("expected Building, got %s", c.Phase())
	}
}

func TestProcessLineBuildProgressUpdatesCounters(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Transition(PhaseBuilding)
	c.ProcessLine("[42/100] Building C object zephyr/CMakeFiles/zephyr.dir/foo.c.obj")
	counters := c.Counters()
	if counters.BuildStepsCompleted != 42 || counters.BuildStepsTotal != 100 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
}

func TestProcessLineGitTransferUpdatesCounters(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.ProcessLine("Receiving objects:  57% (820/1439), 3.21 MiB/s")
	counters := c.Counters()
	if counters.TransferPercent != 57 || counters.FilesTransferred != 820 || counters.FilesTotal != 1439 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
	if counters.TransferSpeed == "" {
		t.Fatal("expected transfer speed to be captured")
	}

	c.ProcessLine("Resolving deltas: 100% (200/200)")
	counters = c.Counters()
	if counters.DeltasResolved != 200 || counters.DeltasTotal != 200 {
		t.Fatalf("unexpected delta counters: %+v", counters)
	}
}

func TestProcessLineBoardDetectionAndCompletion(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Transition(PhaseBuilding)
	c.ProcessLine("-- Board: nice_nano_v2")
	c.ProcessLine("[100%] Built target zmk")
	counters := c.Counters()
	if counters.BoardsDetected != 1 || counters.BoardsCompleted != 1 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
}

func TestCancelledErrTransitionsToFailed(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Transition(PhaseBuilding)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.CancelledErr(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
	if c.Phase() != PhaseFailed {
		t.Fatalf("expected Failed after cancellation, got %s", c.Phase())
	}
}

func TestCancelledErrNilWhenContextLive(t *testing.T) {
	c, _ := newTestCoordinator(t)
	if err := c.CancelledErr(context.Background()); err != nil {
		t.Fatalf("expected no error for a live context, got %v", err)
	}
}

func TestChainDropsNoiseLines(t *testing.T) {
	filter, err := NewLogFilterMiddleware()
	if err != nil {
		t.Fatalf("new log filter: %v", err)
	}
	chain := NewChain(filter)

	if _, keep := chain.Process("Pulling from zmkfirmware/zmk-build-arm"); keep {
		t.Fatal("expected noise line to be dropped")
	}
	if out, keep := chain.Process("-- Board: nice_nano_v2"); !keep || out != "-- Board: nice_nano_v2" {
		t.Fatalf("expected signal line to pass through unchanged, got %q keep=%v", out, keep)
	}
}

func TestChainFeedsCoordinatorMiddleware(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.Transition(PhaseBuilding)
	chain := NewChain(CoordinatorMiddleware{Coordinator: c})

	chain.Process("[1/10] Building C object foo.c.obj")

	counters := c.Counters()
	if counters.BuildStepsCompleted != 1 || counters.BuildStepsTotal != 10 {
		t.Fatalf("expected coordinator to observe line via middleware, got %+v", counters)
	}
}

func TestCompilePatternsUsesKeyboardOverrides(t *testing.T) {
	p, err := CompilePatterns(model.KeymapConfig{BuildStartPattern: `^CUSTOM_START$`})
	if err != nil {
		t.Fatalf("compile patterns: %v", err)
	}
	if !p.BuildStart.MatchString("CUSTOM_START") {
		t.Fatal("expected custom build start pattern to be used")
	}
	if p.BoardDetection == nil || !p.BoardDetection.MatchString("-- Board: nice_nano_v2") {
		t.Fatal("expected default board detection pattern to still apply")
	}
}
