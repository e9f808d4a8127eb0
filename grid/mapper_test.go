package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)

func TestCellToInstant(t *testing.T) {
	l := DefaultLayout(48)

	got, err := l.CellToInstant(monday, 9, false)
	require.NoError(t, err)
	assert.Equal(t, At(monday, 9, 0), got)

	got, err = l.CellToInstant(monday, 20, true)
	require.NoError(t, err)
	assert.Equal(t, At(monday, 20, 30), got)

	_, err = l.CellToInstant(monday, 6, false)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = l.CellToInstant(monday, 21, false)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPixelToInstant(t *testing.T) {
	l := DefaultLayout(48)

	tests := []struct {
		name   string
		offset float64
		hour   int
		minute int
	}{
		{"top of grid", 0, 7, 0},
		{"inside first half", 23.9, 7, 0},
		{"second half", 24, 7, 30},
		{"next hour", 48, 8, 0},
		{"14:00", 7 * 48, 14, 0},
		{"15:30", 8*48 + 30, 15, 30},
		{"last half-cell", l.Span() - 1, 20, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.PixelToInstant(monday, tt.offset)
			require.True(t, ok)
			assert.Equal(t, At(monday, tt.hour, tt.minute), got)
		})
	}
}

func TestPixelToInstantOutOfRange(t *testing.T) {
	l := DefaultLayout(48)

	for _, offset := range []float64{-1, -48, l.Span(), l.Span() + 10} {
		_, ok := l.PixelToInstant(monday, offset)
		assert.False(t, ok, "offset %v", offset)
	}
}

func TestPixelToInstantMonotonic(t *testing.T) {
	for _, cell := range []float64{2, 4, 48, 64} {
		l := DefaultLayout(cell)
		prev, ok := l.PixelToInstant(monday, 0)
		require.True(t, ok)
		for offset := 0.0; offset < l.Span(); offset += cell / 8 {
			got, ok := l.PixelToInstant(monday, offset)
			require.True(t, ok)
			assert.False(t, got.Before(prev), "cell %v offset %v", cell, offset)
			prev = got
		}
	}
}

func TestInstantToPixelTopRoundTrip(t *testing.T) {
	for _, cell := range []float64{2, 48, 64} {
		l := DefaultLayout(cell)
		for _, h := range l.Hours() {
			for _, half := range []bool{false, true} {
				instant, err := l.CellToInstant(monday, h, half)
				require.NoError(t, err)
				top := l.InstantToPixelTop(instant)
				back, ok := l.PixelToInstant(monday, top)
				require.True(t, ok)
				assert.Equal(t, instant, back)
			}
		}
	}
}

func TestInstantToPixelTopUnaligned(t *testing.T) {
	l := DefaultLayout(48)
	// 09:40 lands inside the 09:30 half-cell.
	instant := At(monday, 9, 40)
	top := l.InstantToPixelTop(instant)
	assert.InDelta(t, 2*48+40*0.8, top, 1e-9)

	back, ok := l.PixelToInstant(monday, top)
	require.True(t, ok)
	assert.Equal(t, At(monday, 9, 30), back)
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, DefaultLayout(48).Validate())
	assert.Error(t, Layout{FirstHour: 10, EndHour: 10, CellHeight: 2}.Validate())
	assert.Error(t, Layout{FirstHour: 7, EndHour: 21}.Validate())
	assert.Error(t, Layout{FirstHour: 7, EndHour: 25, CellHeight: 2}.Validate())
}

func TestPresets(t *testing.T) {
	p := Presets{Pointer: 48, Touch: 64}
	assert.Equal(t, 48.0, p.CellHeight(Pointer))
	assert.Equal(t, 64.0, p.CellHeight(Touch))
	assert.Equal(t, "touch", Touch.String())
}
