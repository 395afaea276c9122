// Package footpath decides which detections matter to someone walking.
//
// Responsibilities: filtering to ground-level obstacles, foot-path
// membership, distance-based foot hazard levels, time-to-collision from a
// short path history, stair and uneven-surface heuristics, optional depth
// fusion, and construction of prioritised warnings.
// Key types: Analyzer, Analysis, Obstacle, PathHistory, StairInfo,
// SurfaceInfo, Warning, DepthEstimator.
//
// PathHistory is the only cross-frame state; it is owned by the caller
// and is not safe for concurrent use.
package footpath
