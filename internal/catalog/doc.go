// Package catalog exports a classified run to SQLite for report renderers.
//
// The database is written once per run and never read back by the pipeline:
// each run gets its own rows keyed by run ID, so renderers can compare runs or
// pick the latest. Schema changes ship as embedded, ordered migrations.
package catalog
