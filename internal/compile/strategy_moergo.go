package compile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/paths"
	"github.com/caddyglow/glovebox/internal/progress"
	"github.com/caddyglow/glovebox/internal/sysadapter"
)

// runMoergo is the Nix-container strategy: no west workspace, fewer
// phases — the driver goes straight from Initializing to Building, since
// there is no cache/workspace step to report (spec §4.7).
func (d *Driver) runMoergo(ctx context.Context) (*Result, error) {
	if err := d.coordinator.CancelledErr(ctx); err != nil {
		return nil, err
	}

	d.coordinator.Transition(progress.PhaseBuilding)
	var artifacts []Artifact
	var failed []string
	for _, target := range d.opts.Matrix.Targets {
		if err := d.coordinator.CancelledErr(ctx); err != nil {
			return nil, err
		}
		artifact, buildErr := d.buildMoergoTarget(ctx, target)
		if buildErr != nil {
			failed = append(failed, targetLabel(target))
			continue
		}
		artifacts = append(artifacts, *artifact)
	}

	d.coordinator.Transition(progress.PhasePostProcessing)
	result := &Result{
		Outcome:   classifyOutcome(d.opts.Matrix, artifacts, failed),
		Artifacts: artifacts,
		Failed:    failed,
	}

	if err := placeArtifacts(d.opts.OutputDir, d.opts.LayoutBasename, result); err != nil {
		return nil, err
	}

	return result, nil
}

// buildMoergoTarget runs the Nix build for one target, using a
// per-target out-link so concurrent targets in the matrix don't clobber
// each other's `result` symlink.
func (d *Driver) buildMoergoTarget(ctx context.Context, target model.BuildTarget) (*Artifact, error) {
	slug := targetSlug(target)
	outLink := "result-" + slug

	args := []string{"nix", "build", ".#" + target.Board, "--out-link", outLink}
	args = append(args, target.ExtraCMakeArgs...)
	args = append(args, d.opts.Method.ExtraCMakeArgs...)

	res, err := d.opts.Adapter.Run(ctx, sysadapter.RunOpts{
		Image: d.opts.Method.Image,
		Mounts: []sysadapter.Mount{
			{HostPath: d.opts.WorkspaceRoot, ContainerPath: "/workspace", Mode: sysadapter.ModeReadWrite},
		},
		Env:     d.opts.Method.Env,
		UIDGID:  d.opts.UIDGID,
		Command: args,
		WorkDir: "/workspace",
	}, d.onLine)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("nix build %s exited with code %d", slug, res.ExitCode)
	}

	uf2Path := filepath.Join(d.opts.WorkspaceRoot, outLink, "zmk.uf2")
	if !paths.Exists(uf2Path) {
		return nil, fmt.Errorf("build artifact not found at %s", uf2Path)
	}
	return &Artifact{Target: target, Side: target.Side(), Path: uf2Path}, nil
}
