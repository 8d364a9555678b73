// Package scorecard computes the UGIAP Pourashava performance dashboard.
// Scores for the participating Pourashavas, graded A+ to D.
//
// Usage:
//
//	import "github.com/spektr-org/scorecard/engine"
//
//	loader := engine.NewLoader(src, schema.Default(), engine.WithLoadTimeout(30*time.Second))
//	sess, err := engine.NewSession(ctx, loader, engine.WithTopN(10))
//	sess.SelectView("Overview")
//	page, err := sess.Render()
//
// The engine reads the spreadsheet once per load into an immutable snapshot
// and returns render-ready pages (charts, tables, a map layer and text).
// Spreadsheet access lives in the sources package, PNG export in render,
// the HTTP API in server and the run archive in archive.
package scorecard
