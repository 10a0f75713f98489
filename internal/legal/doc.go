// Package legal finds, deduplicates and classifies LICENSE and NOTICE files in
// extracted archive content trees.
//
// Documents are identified by their whitespace-free, lowercased text (the
// key) and interned in a run-scoped Store, so byte-identical or trivially
// reformatted copies across thousands of archives collapse to one Entity. Each
// Archive then splits its entities into declared (reachable from the archive's
// own content root without crossing a nested ".contents" boundary) and other.
// Undeclared fragments whose key is contained in a declared key are treated as
// implied by that declaration and are not reported as other.
//
// Reference license bodies (Apache-2.0, CPL-1.0, CDDL-1.0) are embedded and
// replaced by short markers in display text.
package legal
