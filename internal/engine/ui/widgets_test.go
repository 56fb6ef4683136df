package ui

import "testing"

func TestFitSize(t *testing.T) {
	tests := []struct {
		name               string
		srcW, srcH, aw, ah float32
		wantW, wantH       float32
	}{
		{"wide into square", 400, 200, 100, 100, 100, 50},
		{"tall into square", 200, 400, 100, 100, 50, 100},
		{"upscale", 10, 10, 50, 80, 50, 50},
		{"empty source", 0, 10, 50, 50, 0, 0},
		{"no room", 10, 10, 0, 50, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitSize(tt.srcW, tt.srcH, tt.aw, tt.ah)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitSize = %v x %v, want %v x %v", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestTickKind(t *testing.T) {
	for frame, want := range map[int]int{0: 2, 5: 1, 7: 0, 10: 2, 15: 1, 23: 0} {
		if got := tickKind(frame); got != want {
			t.Errorf("tickKind(%d) = %d, want %d", frame, got, want)
		}
	}
}

func TestFrameAt(t *testing.T) {
	tests := []struct {
		x, w   float32
		frames int
		want   int
	}{
		{0, 100, 10, 0},
		{9.9, 100, 10, 0},
		{10, 100, 10, 1},
		{99.9, 100, 10, 9},
		{100, 100, 10, -1},
		{-1, 100, 10, -1},
		{50, 100, 0, -1},
	}
	for _, tt := range tests {
		if got := frameAt(tt.x, tt.w, tt.frames); got != tt.want {
			t.Errorf("frameAt(%v, %v, %d) = %d, want %d", tt.x, tt.w, tt.frames, got, tt.want)
		}
	}
}
