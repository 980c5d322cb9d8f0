// Package recorder drives the single-threaded capture loop: read one
// frame, classify it, advance the segmentation state machine, and persist
// any finished segment, until the context is cancelled.
package recorder
