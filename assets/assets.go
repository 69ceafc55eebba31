// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package assets provides access to the application's embedded static assets.
*/
package assets

import (
	"embed"
)

// FS provides access to the embedded file system.
//
// Layout:
//
//	po/<locale>.po   gettext catalogues for the "lingofe" domain
//
//go:embed po
var FS embed.FS
