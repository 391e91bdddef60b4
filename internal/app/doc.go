// Package app wires the preparation pipeline together and runs it end to
// end: harvest the monthly archives, consolidate them into one table, prune
// sparse columns, gate the target's missingness, drop the rows the gate
// cleared, type the survivors, and persist the training artifact.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from defaults, file, and environment
//	2. Initialize logging
//	3. Construct the preflight checks, harvester, artifact writer, and
//	   report generator
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication(configPath)
//	if err != nil {
//	    ...
//	}
//	summary, err := application.Run(ctx)
//
// # Error Handling
//
// Every stage failure is fatal: Run returns the first error together with
// the partial run summary, and the caller controls the exit process. The
// app does not call os.Exit() directly.
package app
