package progress

import (
	"regexp"

	"github.com/caddyglow/glovebox/internal/model"
)

// Default phase-detection patterns used when a keyboard descriptor's
// KeymapConfig leaves the corresponding field empty (spec §4.8: "phases
// are detected by regex patterns supplied by the keyboard descriptor,
// with sensible defaults otherwise").
const (
	defaultRepoDownloadPattern   = `^From https://`
	defaultBuildStartPattern     = `^-- Build files have been written to`
	defaultBuildProgressPattern  = `^\[(\d+)/(\d+)\]`
	defaultBuildCompletePattern  = `^Memory region\s+\S+\s+Used Size`
	defaultBoardDetectionPattern = `^-- Board:\s+(\S+)`
	defaultBoardCompletePattern  = `^\[100%\] Built target`
)

// git transfer-progress patterns are not configurable per keyboard; they
// match the fixed wire format of `git fetch`/`west update` output
// (spec §4.8).
var (
	gitReceivingObjectsPattern = regexp.MustCompile(`Receiving objects:\s+(\d+)%\s+\((\d+)/(\d+)\)(?:,\s+([\d.]+\s*\S+/s))?`)
	gitResolvingDeltasPattern  = regexp.MustCompile(`Resolving deltas:\s+(\d+)%\s+\((\d+)/(\d+)\)`)
)

// Patterns holds the compiled regexes a Coordinator matches output lines
// against.
type Patterns struct {
	RepoDownload   *regexp.Regexp
	BuildStart     *regexp.Regexp
	BuildProgress  *regexp.Regexp
	BuildComplete  *regexp.Regexp
	BoardDetection *regexp.Regexp
	BoardComplete  *regexp.Regexp
}

// CompilePatterns builds a Patterns set from a keyboard's KeymapConfig,
// falling back to the package defaults for any pattern left unset.
func CompilePatterns(cfg model.KeymapConfig) (Patterns, error) {
	var p Patterns
	var err error
	if p.RepoDownload, err = compileOrDefault(cfg.RepoDownloadPattern, defaultRepoDownloadPattern); err != nil {
		return Patterns{}, err
	}
	if p.BuildStart, err = compileOrDefault(cfg.BuildStartPattern, defaultBuildStartPattern); err != nil {
		return Patterns{}, err
	}
	if p.BuildProgress, err = compileOrDefault(cfg.BuildProgressPattern, defaultBuildProgressPattern); err != nil {
		return Patterns{}, err
	}
	if p.BuildComplete, err = compileOrDefault(cfg.BuildCompletePattern, defaultBuildCompletePattern); err != nil {
		return Patterns{}, err
	}
	if p.BoardDetection, err = compileOrDefault(cfg.BoardDetectionPattern, defaultBoardDetectionPattern); err != nil {
		return Patterns{}, err
	}
	if p.BoardComplete, err = compileOrDefault(cfg.BoardCompletePattern, defaultBoardCompletePattern); err != nil {
		return Patterns{}, err
	}
	return p, nil
}

func compileOrDefault(pattern, def string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = def
	}
	return regexp.Compile(pattern)
}
