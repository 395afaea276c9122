// Package pipeline is the composition root of the obstacle-warning flow.
//
// It wires detect, geometry, tracks, hazard, footpath, alert and governor
// into a single-worker, pull-based frame loop. None of those packages
// import pipeline. The pipeline owns no domain logic of its own: it
// sequences the stages, confines cross-frame state to State, and turns
// every stage failure into a logged, empty or partial Result.
package pipeline
