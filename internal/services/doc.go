// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations they drive.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and archive
//     paths for logging.
//   - Structured error markers plus the Wrap helper that separate fatal
//     failures (crawl, configuration, missing resources) from per-archive
//     failures the run recovers from.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
