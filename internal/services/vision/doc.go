// Package vision runs the frame-by-frame face/smile detector over a case video
// and exposes its output as an interpolatable time series.
//
// The detector prints one line per analysed frame: time in seconds, movement
// amplitude and a smile flag, separated by tabs. Series values are sampled at
// arbitrary chunk timestamps by piecewise-linear interpolation that clamps to
// the first and last frame outside the analysed range.
package vision
