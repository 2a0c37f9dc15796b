package xcorr

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrSampleRateMismatch reports inputs recorded at different sample rates.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
	// ErrEmptySignal reports an input with no samples.
	ErrEmptySignal = errors.New("empty signal")
)

// LagSamples returns the lag, in samples, at which b best aligns with a.
func LagSamples(a, b []float64) (int, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptySignal
	}
	n := paddedLength(len(a) + len(b) - 1)

	spectrumA := fft.FFTReal(zeroPad(a, n))
	spectrumB := fft.FFTReal(zeroPad(b, n))
	product := make([]complex128, n)
	for i := range product {
		product[i] = spectrumA[i] * cmplx.Conj(spectrumB[i])
	}
	circular := fft.IFFT(product)

	correlation := make([]float64, n)
	for i, v := range circular {
		correlation[i] = real(v)
	}

	// Non-negative lags occupy [0, len(a)-1]; negative lags wrap to the tail.
	positive := correlation[:len(a)]
	best := floats.MaxIdx(positive)
	lag, peak := best, positive[best]
	if len(b) > 1 {
		negative := correlation[n-(len(b)-1):]
		nbest := floats.MaxIdx(negative)
		if negative[nbest] > peak {
			lag = nbest - (len(b) - 1)
		}
	}
	return lag, nil
}

// EstimateOffset returns the alignment lag in seconds for two sample streams
// sharing sampleRate.
func EstimateOffset(a, b []float64, sampleRate int) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("estimate offset: invalid sample rate %d", sampleRate)
	}
	lag, err := LagSamples(a, b)
	if err != nil {
		return 0, fmt.Errorf("estimate offset: %w", err)
	}
	return float64(lag) / float64(sampleRate), nil
}

// EstimateRecordingOffset is EstimateOffset for decoded recordings; both must
// share one sample rate.
func EstimateRecordingOffset(a, b Recording) (float64, error) {
	if a.SampleRate != b.SampleRate {
		return 0, fmt.Errorf("%w: %d Hz vs %d Hz", ErrSampleRateMismatch, a.SampleRate, b.SampleRate)
	}
	return EstimateOffset(a.Samples, b.Samples, a.SampleRate)
}

func paddedLength(minimum int) int {
	n := 1
	for n < minimum {
		n <<= 1
	}
	return n
}

func zeroPad(samples []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, samples)
	return out
}
