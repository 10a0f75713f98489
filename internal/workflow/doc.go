// Package workflow runs the legal scan pipeline end to end.
//
// A Runner executes the stages strictly in sequence: resolve the staging
// resources, mirror them into repo/, unpack each mirror copy into content/,
// collect and classify legal documents, and export the result to the catalog.
// A run holds an exclusive lock on the output root so two runs never write the
// same trees. Scan reuses the unpack and classify stages over an existing
// mirror without touching the staging repository.
//
// Stage failures are reported through internal/stageexec. Per-archive
// failures (mirror, unpack) are collected on the Result; only fatal errors
// stop the run.
package workflow
