package app

import (
	"testing"
	"time"

	"thermweb-monitor/internal/storage"
)

func TestDownsampleSamples(t *testing.T) {
	samples := make([]storage.ReadingSample, 10)
	base := time.Now().UTC()
	for i := range samples {
		samples[i] = storage.ReadingSample{Time: base.Add(time.Duration(i) * time.Minute)}
	}

	down := downsampleSamples(samples, 4)
	if len(down) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(down))
	}
	if !down[0].Time.Equal(samples[0].Time) || !down[3].Time.Equal(samples[9].Time) {
		t.Fatal("downsampling must keep the first and last samples")
	}

	if got := downsampleSamples(samples, 20); len(got) != 10 {
		t.Fatalf("small sets pass through, got %d", len(got))
	}
	if got := downsampleSamples(samples, 0); len(got) != 10 {
		t.Fatalf("zero max passes through, got %d", len(got))
	}
}
