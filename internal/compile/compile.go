// Package compile drives a firmware compile through its linear phase
// machine, delegating workspace preparation to internal/workspace and
// container execution to internal/sysadapter (spec §4.7).
package compile

import (
	"context"

	"github.com/caddyglow/glovebox/internal/cachestore"
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/progress"
	"github.com/caddyglow/glovebox/internal/sysadapter"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Outcome classifies a finished compile (spec §4.7 "split-board pairing").
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailed         Outcome = "failed"
)

// Artifact is one located, named firmware file.
type Artifact struct {
	Target model.BuildTarget
	Side   string
	Path   string
}

// Result is the outcome of one Driver.Run call.
type Result struct {
	Outcome   Outcome
	Artifacts []Artifact
	Failed    []string
}

// Options configures one compile.
type Options struct {
	Repository     string
	Branch         string
	ManifestCommit string

	Matrix model.BuildMatrix
	Method model.CompileMethodConfig
	Keymap model.KeymapConfig

	// WorkspaceRoot is the scoped directory this compile prepares and
	// builds in (caller-owned: created before Run, released after).
	WorkspaceRoot string

	// OutputDir receives the final artifacts; if empty, artifacts (plus
	// a zip of all of them) are written to the current directory
	// (spec §4.7 "artifact collection").
	OutputDir      string
	LayoutBasename string

	// ConfigFiles are written into the prepared workspace's config
	// directory (relative filename -> rendered contents) before the
	// zmk_config strategy invokes west build — the rendered .keymap/.conf
	// pair a caller produced via internal/dtsi ahead of the compile.
	ConfigFiles map[string]string

	Cache   *cachestore.Store
	Adapter sysadapter.Adapter
	UIDGID  sysadapter.UIDGID

	OnLine        sysadapter.LineFunc
	OnPhaseChange progress.PhaseChangeFunc
	OnUpdate      progress.UpdateFunc
}

// Driver runs one compile through its phase machine.
type Driver struct {
	opts        Options
	coordinator *progress.Coordinator
	chain       *progress.Chain
}

// New builds a Driver, compiling the keyboard's progress patterns and
// wiring the always-present compilation-progress middleware plus a
// noise-filtering middleware (spec §4.9).
func New(opts Options) (*Driver, error) {
	coordinator, err := progress.New(opts.Keymap, opts.OnPhaseChange, opts.OnUpdate)
	if err != nil {
		return nil, err
	}
	filter, err := progress.NewLogFilterMiddleware()
	if err != nil {
		return nil, err
	}
	chain := progress.NewChain(progress.CoordinatorMiddleware{Coordinator: coordinator}, filter)
	return &Driver{opts: opts, coordinator: coordinator, chain: chain}, nil
}

// Coordinator exposes the underlying progress coordinator, e.g. for a
// caller that wants to read Phase()/Counters() independent of callbacks.
func (d *Driver) Coordinator() *progress.Coordinator { return d.coordinator }

func (d *Driver) onLine(line string) {
	out, keep := d.chain.Process(line)
	if keep && d.opts.OnLine != nil {
		d.opts.OnLine(out)
	}
}

// Run drives the compile through Idle → ... → Completed/Failed
// (spec §4.7). The strategy named by opts.Method.Strategy selects
// between the generic `zmk_config` workspace-based path and the
// `moergo` Nix-container path.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	d.coordinator.Transition(progress.PhaseInitializing)
	if err := d.coordinator.CancelledErr(ctx); err != nil {
		return nil, err
	}

	var result *Result
	var err error
	switch d.opts.Method.Strategy {
	case "moergo":
		result, err = d.runMoergo(ctx)
	default:
		result, err = d.runZMKConfig(ctx)
	}
	if err != nil {
		d.coordinator.Fail()
		return nil, err
	}

	if result.Outcome == OutcomeFailed {
		d.coordinator.Fail()
		return result, xerrors.ErrBuildFailed.WithMessagef("all build targets failed: %v", result.Failed)
	}

	d.coordinator.Transition(progress.PhaseCompleted)
	return result, nil
}

// classifyOutcome applies spec §4.7's split-board pairing rule: a split
// matrix needs both sides to count as full success; anything else with
// at least one artifact is a partial success.
func classifyOutcome(matrix model.BuildMatrix, artifacts []Artifact, failed []string) Outcome {
	if len(artifacts) == 0 {
		return OutcomeFailed
	}
	if len(failed) == 0 {
		if matrix.HasSplitPair() && !hasBothSides(artifacts) {
			return OutcomePartialSuccess
		}
		return OutcomeSuccess
	}
	if matrix.HasSplitPair() {
		if hasBothSides(artifacts) {
			return OutcomeSuccess
		}
		return OutcomePartialSuccess
	}
	return OutcomePartialSuccess
}

func hasBothSides(artifacts []Artifact) bool {
	hasLH, hasRH := false, false
	for _, a := range artifacts {
		switch a.Side {
		case "lh":
			hasLH = true
		case "rh":
			hasRH = true
		}
	}
	return hasLH && hasRH
}

func targetSlug(t model.BuildTarget) string {
	if t.Shield != "" {
		return t.Board + "_" + t.Shield
	}
	return t.Board
}

func targetLabel(t model.BuildTarget) string {
	if t.ArtifactName != "" {
		return t.ArtifactName
	}
	return targetSlug(t)
}
