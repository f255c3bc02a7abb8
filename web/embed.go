package web

import "embed"

// TemplatesFS embeds the page templates rendered by internal/views.
//
//go:embed templates/*.html
var TemplatesFS embed.FS
