package sysadapter

import (
	"context"
	"testing"
)

func TestPodmanAdapterAvailableFalseForMissingBinary(t *testing.T) {
	a := NewPodmanAdapter("glovebox-definitely-not-a-real-binary")
	if a.Available(context.Background()) {
		t.Fatal("expected Available to be false for a nonexistent binary")
	}
}

func TestHostUIDGIDResolvesCurrentUser(t *testing.T) {
	ug, err := HostUIDGID()
	if err != nil {
		t.Fatalf("HostUIDGID: %v", err)
	}
	if ug.Disabled {
		t.Fatal("expected host user mapping to be enabled by default")
	}
}

func TestFakeAdapterStreamsLinesAndRecordsCalls(t *testing.T) {
	fake := &FakeAdapter{Lines: []string{"a", "b"}, ExitCode: 0}
	var got []string
	res, err := fake.Run(context.Background(), RunOpts{Image: "zmkfirmware/zmk-build-arm:stable"}, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", res.ExitCode)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected lines: %v", got)
	}
	if len(fake.Calls) != 1 || fake.Calls[0].Image != "zmkfirmware/zmk-build-arm:stable" {
		t.Fatalf("expected call to be recorded, got %+v", fake.Calls)
	}
}
