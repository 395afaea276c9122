// Package detect owns the raw-detection layer of the obstacle pipeline.
//
// Responsibilities: the Detector adapter contract for the external ML model,
// input sanitisation of raw detections, the closed object-class enum, and
// non-max suppression (global and per-class).
// Key types: Frame, RawDetection, BBox, Class, NMSConfig.
//
// Dependency rule: detect depends on nothing else in this module. Geometry,
// tracking, hazard and footpath layers build on top of it.
package detect
