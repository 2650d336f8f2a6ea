// Package configs provides embedded templates for pluginkit.
//
// Templates are embedded at build time using Go's //go:embed directive so they
// are available in every distribution (go install, release binaries).
//
// Template files:
//   - project-config.example.yaml: written by `pluginkit config init` as .pluginkit.yaml
//   - tsconfig.json: default compiler config for TypeScript plugins (preflight)
//   - index.html: dev-server page copied into the public directory (preflight)
package configs

import _ "embed"

// ProjectConfigTemplate is the template for .pluginkit.yaml in a plugin project.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// TSConfigTemplate is written to tsconfig.json when a TypeScript plugin has none.
//
//go:embed tsconfig.json
var TSConfigTemplate string

// IndexHTMLTemplate is copied into the public directory before the dev server starts.
//
//go:embed index.html
var IndexHTMLTemplate string
