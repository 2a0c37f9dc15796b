// Package xcorr estimates the time offset between two recordings of the same
// event from the peak of their frequency-domain cross-correlation.
//
// Inputs are zero-padded to a power of two at least len(a)+len(b)-1 long so
// the circular correlation computed by the FFT has no wraparound. The result
// is the lag, in seconds, that aligns b with a: when b is a copy of a delayed
// by d seconds the estimate is -d, and swapping the arguments flips the sign.
// Estimates on silent or constant input are arbitrary and should be treated
// as advisory.
package xcorr
