// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfoUsesLdflags(t *testing.T) {
	savedCommit, savedDirty := GitCommit, GitDirty
	t.Cleanup(func() { GitCommit, GitDirty = savedCommit, savedDirty })

	GitCommit, GitDirty = "abc1234", "true"
	if got := Info(); !strings.Contains(got, "(abc1234-dirty,") {
		t.Errorf("Info() = %q, want commit abc1234-dirty", got)
	}
}

func TestInfoFallsBackToBuildInfo(t *testing.T) {
	savedCommit, savedRead := GitCommit, readBuildInfo
	t.Cleanup(func() { GitCommit, readBuildInfo = savedCommit, savedRead })

	GitCommit = "unknown"
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "false"},
		}}, true
	}
	if got := Info(); !strings.Contains(got, "(0123456,") {
		t.Errorf("Info() = %q, want truncated VCS revision", got)
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	if got := Full(); !strings.Contains(got, "Platform: ") {
		t.Errorf("Full() = %q", got)
	}
}
