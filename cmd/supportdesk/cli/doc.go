// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the supportdesk
// CLI.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. The tree is assembled in cmd/supportdesk/commands and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples. Unknown commands
// and flags get a "did you mean" suggestion by edit distance.
//
// Parameter structs declare flags with struct tags and are bound by
// [FlagsFromParams]. [ConfigParams] adds --config to any command that
// opens the store, and [OpenRuntime] wires the configuration into a
// store, a sync engine, and device identity.
package cli
