package media

import (
	"math"
	"reflect"
	"testing"
)

func TestClipID(t *testing.T) {
	tests := []struct {
		name    string
		videoID string
		index   int
		want    string
	}{
		{
			name:    "first clip",
			videoID: "lecture_01",
			index:   0,
			want:    "lecture_01_clip_0000",
		},
		{
			name:    "padded index",
			videoID: "demo",
			index:   42,
			want:    "demo_clip_0042",
		},
		{
			// Chunk ids use a "_chunk_" infix; clip ids must never land
			// in that namespace, even past the zero-padding width.
			name:    "large index distinct from chunk ids",
			videoID: "demo",
			index:   1000,
			want:    "demo_clip_1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClipID(tt.videoID, tt.index); got != tt.want {
				t.Errorf("ClipID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClipSpan(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		clipDur   float64
		totalDur  float64
		wantStart float64
		wantEnd   float64
	}{
		{
			name:      "first of three",
			index:     0,
			clipDur:   30,
			totalDur:  90,
			wantStart: 0,
			wantEnd:   30,
		},
		{
			name:      "middle of three",
			index:     1,
			clipDur:   30,
			totalDur:  90,
			wantStart: 30,
			wantEnd:   60,
		},
		{
			name:      "last of three",
			index:     2,
			clipDur:   30,
			totalDur:  90,
			wantStart: 60,
			wantEnd:   90,
		},
		{
			name:      "short trailing clip capped",
			index:     3,
			clipDur:   30,
			totalDur:  100,
			wantStart: 90,
			wantEnd:   100,
		},
		{
			name:      "video shorter than one clip",
			index:     0,
			clipDur:   30,
			totalDur:  12,
			wantStart: 0,
			wantEnd:   12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := clipSpan(tt.index, tt.clipDur, tt.totalDur)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("clipSpan() = (%v, %v), want (%v, %v)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestFrameTimestamps(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		count    int
		want     []float64
	}{
		{
			name:     "three frames in thirty seconds",
			duration: 30,
			count:    3,
			want:     []float64{7.5, 15, 22.5},
		},
		{
			name:     "single frame at midpoint",
			duration: 10,
			count:    1,
			want:     []float64{5},
		},
		{
			name:     "zero count",
			duration: 30,
			count:    0,
			want:     nil,
		},
		{
			name:     "zero duration",
			duration: 0,
			count:    3,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frameTimestamps(tt.duration, tt.count)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("frameTimestamps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameTimestampsStayInsideClip(t *testing.T) {
	got := frameTimestamps(17.3, 5)
	if len(got) != 5 {
		t.Fatalf("frameTimestamps() returned %d timestamps, want 5", len(got))
	}
	for i, ts := range got {
		if ts <= 0 || ts >= 17.3 {
			t.Errorf("timestamp %d = %v, want strictly inside (0, 17.3)", i, ts)
		}
		if i > 0 && math.Abs((ts-got[i-1])-got[0]) > 1e-9 {
			t.Errorf("timestamps not evenly spaced: %v", got)
		}
	}
}
