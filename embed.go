// Package floatchat embeds the assets for the floating chat widget: the HTML
// templates rendered by the handlers and the static script/stylesheet that
// drive the launcher morph animation on the page.
package floatchat

import "embed"

// TemplateFS contains the embedded HTML templates, organized into layout,
// pages, and partial views.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded static assets required by the widget page.
//
//go:embed static/*
var StaticFS embed.FS
