// Package preflight verifies that the filesystem locations a run depends on
// are usable before any network or disk work starts.
//
// The workflow runner calls RunAll before acquiring the run lock; a failed
// check aborts the run with a configuration error instead of failing halfway
// through a mirror of thousands of archives.
package preflight
