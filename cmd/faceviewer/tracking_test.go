package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportRangeClamp(t *testing.T) {
	tests := []struct {
		name       string
		start, end int32
		total      int32
		endMoved   bool
		wantStart  int32
		wantEnd    int32
	}{
		{"valid range untouched", 2, 8, 10, false, 2, 8},
		{"start pushes end", 8, 5, 10, false, 8, 9},
		{"end pulls start", 8, 5, 10, true, 4, 5},
		{"start at the end", 10, 10, 10, false, 9, 10},
		{"end dragged to zero", 3, 0, 10, true, 0, 1},
		{"out of bounds", -4, 40, 10, false, 0, 10},
		{"static model", 0, 0, 0, false, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := exportForm{frameDir: "frames_model", start: tt.start, end: tt.end}
			f.clampRange(tt.total, tt.endMoved)

			assert.Equal(t, tt.wantStart, f.start)
			assert.Equal(t, tt.wantEnd, f.end)
			assert.True(t, f.canExportRange(tt.total))
		})
	}
}

func TestCanExportRange(t *testing.T) {
	assert.False(t, exportForm{frameDir: "frames_model", start: 5, end: 5}.canExportRange(10))
	assert.False(t, exportForm{frameDir: "frames_model", start: 0, end: 11}.canExportRange(10))
	assert.False(t, exportForm{start: 0, end: 5}.canExportRange(10))
	assert.True(t, exportForm{frameDir: "frames_model", start: 0, end: 10}.canExportRange(10))
}
