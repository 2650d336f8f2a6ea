// Package logging sets up structured slog output for pluginkit.
//
// Without --debug the CLI only logs warnings to stderr. With --debug every
// record is written as JSON to ~/.pluginkit/logs/pluginkit.log, rotated by size.
package logging
