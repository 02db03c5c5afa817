// Package appfs embeds the app's static files: DB migrations, email templates and assets.
package appfs

import "embed"

//go:embed assets migrations all:templates
var FS embed.FS
