package web

import "embed"

// FS embeds the HTML templates (templates/, templates/partials/) and the
// static assets served under /static/.
//
//go:embed templates static
var FS embed.FS
