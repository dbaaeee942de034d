// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Supportdesk is the command-line entry point for the support chat:
// the visitor widget, the agent console, registry listings, and FAQ
// maintenance. Run "supportdesk --help" for the command list.
package main
