package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		name     string
		fps      float64
		interval float64
		want     int
	}{
		{"30fps every 2s", 30, 2, 60},
		{"29.97fps every 2s", 29.97, 2, 60},
		{"25fps every 1s", 25, 1, 25},
		{"24fps every 0.5s", 24, 0.5, 12},
		{"never below one", 10, 0.01, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frameInterval(tt.fps, tt.interval))
		})
	}
}

func TestEffectiveFPS(t *testing.T) {
	assert.Equal(t, 29.97, effectiveFPS(29.97, 30))
	assert.Equal(t, 30.0, effectiveFPS(0, 30))
	assert.Equal(t, 30.0, effectiveFPS(-1, 30))
}

func TestFrameTimestamp(t *testing.T) {
	// Kept frame k has index k*frameInterval and timestamp index/fps.
	fps := 25.0
	interval := frameInterval(fps, 2)

	for k := 0; k < 5; k++ {
		frameNumber := k * interval
		assert.InDelta(t, float64(k)*2.0, frameTimestamp(frameNumber, fps), 1e-9)
	}
}

func TestConsecutiveKeptFramesDifferByInterval(t *testing.T) {
	fps := 30.0
	interval := frameInterval(fps, 2)

	prev := 0
	for k := 1; k < 10; k++ {
		current := k * interval
		assert.Equal(t, interval, current-prev)
		prev = current
	}
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, parseFrameRate("30000/1001"), 0.001)
	assert.Equal(t, 25.0, parseFrameRate("25/1"))
	assert.Equal(t, 24.0, parseFrameRate("24"))
	assert.Equal(t, 0.0, parseFrameRate("0/0"))
	assert.Equal(t, 0.0, parseFrameRate(""))
}
