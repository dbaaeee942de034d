// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the supportdesk
// binary.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected with
// -ldflags -X. Builds without ldflags (go install, go test) fall back to
// the VCS stamp the Go toolchain embeds, when there is one.
package version
