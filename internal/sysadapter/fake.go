package sysadapter

import "context"

// FakeAdapter is an in-process Adapter stand-in for tests of packages that
// depend on container invocation (the compilation driver, the workspace
// manager) without actually shelling out to podman.
type FakeAdapter struct {
	// Lines are emitted in order on every Run call.
	Lines []string
	// ExitCode is returned from every Run call.
	ExitCode int
	// Err, if set, is returned from Run instead of a Result.
	Err error
	// Calls records every RunOpts passed to Run, in order.
	Calls []RunOpts
	// OnRun, if set, is invoked with each call's RunOpts before Lines are
	// emitted — tests use it to simulate a command's filesystem effects
	// (e.g. writing the build artifact a caller will look for).
	OnRun func(opts RunOpts)
}

func (f *FakeAdapter) Run(ctx context.Context, opts RunOpts, onLine LineFunc) (Result, error) {
	f.Calls = append(f.Calls, opts)
	if f.OnRun != nil {
		f.OnRun(opts)
	}
	if f.Err != nil {
		return Result{}, f.Err
	}
	for _, line := range f.Lines {
		if onLine != nil {
			onLine(line)
		}
	}
	return Result{ExitCode: f.ExitCode}, nil
}

func (f *FakeAdapter) Available(ctx context.Context) bool {
	return true
}
