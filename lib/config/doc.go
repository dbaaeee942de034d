// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for supportdesk.
//
// Configuration is loaded from a single file named by either the
// SUPPORTDESK_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no file
// search. A binary run with neither uses [Default].
//
// The file may contain environment sections (development, production)
// that override base values when [Config].Environment matches.
// Production without its own section keeps the base values except that
// the change poll interval is relaxed to one second.
//
// After loading, ${HOME}, ${SUPPORTDESK_ROOT}, and ${VAR:-default}
// patterns are expanded in path fields. Environment variables never
// override config values directly.
//
// This package depends on no other supportdesk packages. Composite
// index declarations are kept as text and parsed by the caller with
// docstore.ParseIndex.
package config
