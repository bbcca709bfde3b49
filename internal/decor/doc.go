// Package decor turns analyzer findings into editor decorations.
//
// # Pipeline
//
// Normalize resolves every Finding against a document snapshot: it computes
// the end offset and the owning line. Build consumes the resolved findings in
// analyzer order and emits the decoration set:
//
//   - one Highlight per finding, never deduplicated;
//   - for the first finding on a line, one LineMarker at the line start and
//     one Annotation anchored after the line end carrying that finding's
//     reason. Later findings on the same line only get their Highlight.
//
// # Ordering
//
// Rendering surfaces need entries sorted by position with a reproducible
// tie-break. Entries are ordered by Pos, then by kind rank
// (LineMarker < Highlight < Annotation), then by End, then by emission order.
// Two builds over the same input always produce the same sequence.
//
// Package decor performs no IO and keeps no state between calls.
package decor
