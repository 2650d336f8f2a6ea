// Package preflight validates a plugin project before its dev server starts.
//
// Checks run in a fixed order and return typed results instead of exiting:
//   - the app config file exists
//   - index.html is copied into the public directory
//   - React dependencies match what the host UI package expects
//   - TypeScript projects have the compiler and a tsconfig.json
//   - the plugin entry calls loadPlugin exactly once
//   - the plugin is recorded in the local plugin registry
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithConfig(cfg), preflight.WithAllowSkip(cfg.Preflight.Skip))
//	results := checker.RunAll(ctx, "")
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
