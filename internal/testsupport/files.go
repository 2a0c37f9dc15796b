package testsupport

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Noise returns n deterministic pseudo-random samples in [-0.5, 0.5).
func Noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64() - 0.5
	}
	return out
}

// Delay returns samples shifted right by k samples, zero-filled at the start
// and cut to the original length.
func Delay(samples []float64, k int) []float64 {
	out := make([]float64, len(samples))
	if k < len(samples) {
		copy(out[k:], samples[:len(samples)-k])
	}
	return out
}

// WriteWAV encodes mono samples in [-1, 1] as a 16-bit PCM WAV file.
func WriteWAV(t testing.TB, path string, samples []float64, sampleRate int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer out.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, s)) * 0x7FFF))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	encoder := wav.NewEncoder(out, sampleRate, 16, 1, 1)
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("close encoder %s: %v", path, err)
	}
	return path
}
