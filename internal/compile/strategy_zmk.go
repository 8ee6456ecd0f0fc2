package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/paths"
	"github.com/caddyglow/glovebox/internal/progress"
	"github.com/caddyglow/glovebox/internal/sysadapter"
	"github.com/caddyglow/glovebox/internal/workspace"
)

// runZMKConfig is the generic strategy: prepare a west workspace (cache
// store first, container on a miss), `west build` each target of the
// build matrix, collect UF2s (spec §4.7).
func (d *Driver) runZMKConfig(ctx context.Context) (*Result, error) {
	d.coordinator.Transition(progress.PhaseCacheSetup)
	if err := d.coordinator.CancelledErr(ctx); err != nil {
		return nil, err
	}

	wsOpts := workspace.Options{
		Repository:     d.opts.Repository,
		Branch:         d.opts.Branch,
		ManifestCommit: d.opts.ManifestCommit,
		TargetPath:     d.opts.WorkspaceRoot,
		Cache:          d.opts.Cache,
		Adapter:        d.opts.Adapter,
		ContainerImage: d.opts.Method.Image,
		UIDGID:         d.opts.UIDGID,
		ConfigDir:      "config",
		BuildDir:       ".",
		OnLine:         d.onLine,
	}

	d.coordinator.Transition(progress.PhaseWorkspaceSetup)
	wsResult, err := workspace.Setup(ctx, wsOpts)
	if err != nil {
		return nil, err
	}

	if err := d.writeConfigFiles(wsResult.Path); err != nil {
		workspace.Release(wsResult.Path, false)
		return nil, err
	}

	d.coordinator.Transition(progress.PhaseDependencyFetch)
	if err := d.coordinator.CancelledErr(ctx); err != nil {
		workspace.Release(wsResult.Path, false)
		return nil, err
	}

	d.coordinator.Transition(progress.PhaseBuilding)
	var artifacts []Artifact
	var failed []string
	for _, target := range d.opts.Matrix.Targets {
		if err := d.coordinator.CancelledErr(ctx); err != nil {
			workspace.Release(wsResult.Path, false)
			return nil, err
		}
		artifact, buildErr := d.buildZMKTarget(ctx, wsResult.Path, target)
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

	if result.Outcome == OutcomeSuccess && d.opts.Cache != nil {
		wsResult.Level = model.CacheLevelBuild
		if _, promoteErr := workspace.Promote(ctx, wsOpts, wsResult); promoteErr != nil {
			return nil, promoteErr
		}
	}

	if result.Outcome == OutcomeFailed {
		workspace.Release(wsResult.Path, false)
	}

	return result, nil
}

// writeConfigFiles drops the caller's rendered keymap/conf pair into the
// workspace's config directory ahead of the build.
func (d *Driver) writeConfigFiles(workspacePath string) error {
	if len(d.opts.ConfigFiles) == 0 {
		return nil
	}
	configDir := filepath.Join(workspacePath, "config")
	if err := paths.EnsureDirPath(configDir); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	for name, contents := range d.opts.ConfigFiles {
		if err := os.WriteFile(filepath.Join(configDir, name), []byte(contents), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// buildZMKTarget runs `west build` for one board/shield inside the
// prepared workspace and locates the resulting UF2
// (spec §4.7 "artifact collection").
func (d *Driver) buildZMKTarget(ctx context.Context, workspacePath string, target model.BuildTarget) (*Artifact, error) {
	slug := targetSlug(target)
	buildDir := "build/" + slug

	args := []string{"west", "build", "-p", "always", "-b", target.Board, "-d", buildDir}
	var cmakeArgs []string
	if target.Shield != "" {
		cmakeArgs = append(cmakeArgs, "-DSHIELD="+target.Shield)
	}
	if target.Snippet != "" {
		cmakeArgs = append(cmakeArgs, "-DSNIPPET="+target.Snippet)
	}
	cmakeArgs = append(cmakeArgs, target.ExtraCMakeArgs...)
	cmakeArgs = append(cmakeArgs, d.opts.Method.ExtraCMakeArgs...)
	if len(cmakeArgs) > 0 {
		args = append(args, "--")
		args = append(args, cmakeArgs...)
	}

	res, err := d.opts.Adapter.Run(ctx, sysadapter.RunOpts{
		Image: d.opts.Method.Image,
		Mounts: []sysadapter.Mount{
			{HostPath: workspacePath, ContainerPath: "/workspace", Mode: sysadapter.ModeReadWrite},
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
		return nil, fmt.Errorf("west build %s exited with code %d", slug, res.ExitCode)
	}

	uf2Path := filepath.Join(workspacePath, "build", slug, "zephyr", "zmk.uf2")
	if !paths.Exists(uf2Path) {
		return nil, fmt.Errorf("build artifact not found at %s", uf2Path)
	}
	return &Artifact{Target: target, Side: target.Side(), Path: uf2Path}, nil
}
