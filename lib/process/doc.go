// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers for the supportdesk
// binary: reporting a fatal error to stderr when the structured logger
// may not exist yet, and exiting with the right status.
package process
