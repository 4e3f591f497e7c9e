// Package preview defines the types shared by the live preview pipeline:
// the rendered surface and its tagged elements, render requests, the
// collaborator contracts for the source editor and the transform/layout
// host, and the pipeline's error taxonomy.
//
// The pipeline itself lives in the subpackages:
//
//   - scheduler coalesces content changes into single-flight renders.
//   - scrollmap correlates source offsets with render offsets.
//   - scrollsync keeps the two views scroll-synchronized.
//   - session wires the three together for one open document.
//
// All offsets are vertical pixel offsets from the top of their view.
// Terminal hosts use rows as pixels.
package preview
