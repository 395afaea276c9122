// Package tracks owns cross-frame identity for detections.
//
// Responsibilities: greedy IoU association of detections to existing
// tracks, exponential smoothing of box, score and distance, velocity
// estimation, and age-based expiry.
// Key types: Store, Track, Associator, TrackedDetection.
//
// The Store is an explicit value owned by the caller (one per video
// stream). It is not safe for concurrent use; the pipeline confines it to
// its single worker.
package tracks
