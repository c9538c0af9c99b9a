package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name                string
		page, limit         int
		wantPage, wantLimit int
	}{
		{"defaults", 0, 0, 1, DefaultLimit},
		{"negative", -3, -1, 1, DefaultLimit},
		{"capped", 2, 500, 2, MaxLimit},
		{"unchanged", 3, 10, 3, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := Normalize(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNew(t *testing.T) {
	p := New(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = New(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestWindow(t *testing.T) {
	start, end := Window(2, 10, 25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = Window(3, 10, 25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = Window(5, 10, 25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}
