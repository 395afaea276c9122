// Package geometry converts pixel detections into normalised frame
// coordinates and estimates real-world distance and bearing with a
// monocular pinhole-camera model. Everything here is a pure function of
// its inputs and the Estimator's field-of-view configuration.
package geometry
