// Package workspace prepares a west/zephyr build workspace from the cache
// store or, on a miss, by running west inside a container (spec §4.6).
package workspace

import (
	"context"
	"fmt"
	"os"

	"github.com/caddyglow/glovebox/internal/cachestore"
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/paths"
	"github.com/caddyglow/glovebox/internal/sysadapter"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Options configures one workspace setup.
type Options struct {
	Repository     string
	Branch         string
	ManifestCommit string
	TargetPath     string

	Cache          *cachestore.Store
	Adapter        sysadapter.Adapter
	ContainerImage string
	UIDGID         sysadapter.UIDGID

	// ConfigDir and BuildDir are paths relative to TargetPath, passed to
	// `west init -l <config_dir> <build_dir>` (spec §4.6 step 3).
	ConfigDir string
	BuildDir  string

	OnLine         sysadapter.LineFunc
	OnCopyProgress cachestore.ExtractProgressFunc
}

// Result describes the prepared workspace.
type Result struct {
	Path      string
	Level     model.CacheLevel
	FromCache bool
}

// Setup prepares a workspace at opts.TargetPath: a cache hit is copied in
// (fully satisfying a `full`-level entry, or seeding a partial one), and
// any remaining work is done by running `west init`/`west update`/
// `west zephyr-export` inside a container, streaming output through
// opts.OnLine (spec §4.6).
func Setup(ctx context.Context, opts Options) (*Result, error) {
	if err := paths.EnsureDirPath(opts.TargetPath); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", opts.TargetPath, err)
	}

	result := &Result{Path: opts.TargetPath}

	var hit *model.CacheEntryMetadata
	if opts.Cache != nil {
		var err error
		hit, err = opts.Cache.BestMatch(ctx, opts.Repository, opts.Branch)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
	}

	if hit != nil {
		if err := opts.Cache.Extract(ctx, hit, opts.TargetPath, opts.OnCopyProgress); err != nil {
			return nil, xerrors.ErrWorkspaceCopy.WithMessagef("copy cached workspace: %v", err)
		}
		result.FromCache = true
		result.Level = hit.CacheLevel
		if hit.CacheLevel == model.CacheLevelFull {
			return result, nil
		}
	}

	if opts.Adapter == nil {
		return nil, xerrors.ErrWorkspaceWestInit.WithMessage("no container adapter configured for workspace setup")
	}

	if hit == nil {
		if err := runWest(ctx, opts, []string{"init", "-l", opts.ConfigDir, opts.BuildDir}); err != nil {
			return nil, xerrors.ErrWorkspaceWestInit.WithMessagef("west init failed: %v", err)
		}
	}

	if err := runWest(ctx, opts, []string{"update"}); err != nil {
		return nil, xerrors.ErrWorkspaceWestUpdate.WithMessagef("west update failed: %v", err)
	}
	if err := runWest(ctx, opts, []string{"zephyr-export"}); err != nil {
		return nil, xerrors.ErrWorkspaceWestUpdate.WithMessagef("west zephyr-export failed: %v", err)
	}

	result.Level = model.CacheLevelFull
	return result, nil
}

func runWest(ctx context.Context, opts Options, args []string) error {
	res, err := opts.Adapter.Run(ctx, sysadapter.RunOpts{
		Image: opts.ContainerImage,
		Mounts: []sysadapter.Mount{
			{HostPath: opts.TargetPath, ContainerPath: "/workspace", Mode: sysadapter.ModeReadWrite},
		},
		UIDGID:  opts.UIDGID,
		Command: append([]string{"west"}, args...),
		WorkDir: "/workspace",
	}, opts.OnLine)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("west %v exited with code %d", args, res.ExitCode)
	}
	return nil
}

// Promote registers a prepared workspace as a cache entry at the level it
// reached (spec §4.6: "on normal completion they are optionally promoted
// to the cache").
func Promote(ctx context.Context, opts Options, result *Result) (*model.CacheEntryMetadata, error) {
	if opts.Cache == nil {
		return nil, nil
	}
	return opts.Cache.Put(ctx, opts.Repository, opts.Branch, opts.ManifestCommit, result.Level, result.Path)
}

// Release deletes a scoped workspace directory unless preserve is set
// (spec §4.6: "on error they are deleted unless the caller requested
// preservation for post-mortem").
func Release(path string, preserve bool) error {
	if preserve {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("release workspace %s: %w", path, err)
	}
	return nil
}
