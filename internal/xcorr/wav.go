package xcorr

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Recording is a mono sample stream normalised to [-1, 1].
type Recording struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the recording length.
func (r Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(r.Samples)) / float64(r.SampleRate) * float64(time.Second))
}

// Truncate keeps at most the first limit of the recording. A non-positive
// limit keeps everything.
func (r Recording) Truncate(limit time.Duration) Recording {
	if limit <= 0 || r.SampleRate <= 0 {
		return r
	}
	keep := int(limit.Seconds() * float64(r.SampleRate))
	if keep >= len(r.Samples) {
		return r
	}
	return Recording{Samples: r.Samples[:keep], SampleRate: r.SampleRate}
}

// ReadWAV decodes a PCM WAV file and mixes all channels down to mono.
func ReadWAV(path string) (Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return Recording{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return Recording{}, fmt.Errorf("decode wav %s: not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Recording{}, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return Recording{}, fmt.Errorf("decode wav %s: missing format", path)
	}

	channels := buf.Format.NumChannels
	scale := fullScale(buf.SourceBitDepth)
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return Recording{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 0x7F
	case 24:
		return 0x7FFFFF
	case 32:
		return 0x7FFFFFFF
	default:
		return 0x7FFF
	}
}

// EstimateFileOffset decodes both files, truncates each to limit, and
// estimates the offset of pathB relative to pathA.
func EstimateFileOffset(ctx context.Context, pathA, pathB string, limit time.Duration) (float64, error) {
	a, err := ReadWAV(pathA)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b, err := ReadWAV(pathB)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return EstimateRecordingOffset(a.Truncate(limit), b.Truncate(limit))
}
