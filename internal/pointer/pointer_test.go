package pointer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/calibration"
)

var hd = Screen{Width: 1920, Height: 1080}

func TestDirectMapper_Target(t *testing.T) {
	tests := []struct {
		name         string
		sensitivity  float64
		x, y         float64
		wantX, wantY float64
	}{
		{"center stays centered", 2.0, 0.5, 0.5, 960, 540},
		{"unit sensitivity is a plain projection", 1.0, 0.25, 0.75, 480, 810},
		{"offset doubles from center", 2.0, 0.6, 0.6, 1344, 756},
		{"clamps past the right edge", 2.0, 0.9, 0.5, 1919, 540},
		{"clamps past the top edge", 3.0, 0.5, 0.0, 960, 0},
		{"sensitivity below range is raised", 0.01, 1.0, 1.0, 960 + 96, 540 + 54},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &DirectMapper{Screen: hd, Sensitivity: tt.sensitivity}
			x, y := m.Target(tt.x, tt.y)
			assert.InDelta(t, tt.wantX, x, 1e-6)
			assert.InDelta(t, tt.wantY, y, 1e-6)
		})
	}
}

func TestZoneMapper_Target(t *testing.T) {
	m := &ZoneMapper{Screen: hd, Zone: calibration.Zone{XMin: 0.2, XMax: 0.6, YMin: 0.3, YMax: 0.7}}

	x, y := m.Target(0.4, 0.5)
	assert.InDelta(t, 960, x, 1e-6)
	assert.InDelta(t, 540, y, 1e-6)

	x, y = m.Target(0.0, 1.0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 1079, y, 1e-6)
}

func TestMappers_StayOnScreen(t *testing.T) {
	mappers := map[string]Mapper{
		"direct low":  &DirectMapper{Screen: hd, Sensitivity: MinSensitivity},
		"direct high": &DirectMapper{Screen: hd, Sensitivity: MaxSensitivity},
		"zone":        &ZoneMapper{Screen: hd, Zone: calibration.DefaultZone()},
	}

	for name, m := range mappers {
		t.Run(name, func(t *testing.T) {
			s := NewSmoother(hd, DefaultSmoothing)
			for i := 0; i <= 20; i++ {
				for j := 0; j <= 20; j++ {
					tx, ty := m.Target(float64(i)/20, float64(j)/20)
					x, y := s.Step(tx, ty)
					require.True(t, x >= 0 && x < hd.Width, "x=%d", x)
					require.True(t, y >= 0 && y < hd.Height, "y=%d", y)
				}
			}
		})
	}
}

func TestSmoother_Converges(t *testing.T) {
	for _, factor := range []float64{0.1, 0.3, 0.7, 1.0} {
		s := NewSmoother(hd, factor)
		const tx, ty = 1500.0, 900.0
		initial := math.Hypot(tx, ty)

		for n := 1; n <= 15; n++ {
			s.Step(tx, ty)
			x, y := s.Position()
			bound := initial*math.Pow(1-factor, float64(n)) + 1e-6
			require.LessOrEqual(t, math.Hypot(tx-x, ty-y), bound, "factor=%v n=%d", factor, n)
		}
	}
}

func TestSmoother_FullFactorJumps(t *testing.T) {
	s := NewSmoother(hd, 1.0)
	x, y := s.Step(100, 200)
	assert.Equal(t, 100, x)
	assert.Equal(t, 200, y)
}

func TestSmoother_SeedAndReset(t *testing.T) {
	s := NewSmoother(hd, 0.5)
	s.Seed(400, 300)

	x, y := s.Step(600, 500)
	assert.Equal(t, 500, x)
	assert.Equal(t, 400, y)

	s.Reset()
	px, py := s.Position()
	assert.Equal(t, 400.0, px)
	assert.Equal(t, 300.0, py)

	s.Seed(5000, -10)
	px, py = s.Position()
	assert.Equal(t, 1919.0, px)
	assert.Equal(t, 0.0, py)
}

func TestClamps(t *testing.T) {
	assert.Equal(t, MinSensitivity, ClampSensitivity(-1))
	assert.Equal(t, MaxSensitivity, ClampSensitivity(9))
	assert.Equal(t, 1.5, ClampSensitivity(1.5))
	assert.Equal(t, MinSmoothing, ClampSmoothing(0))
	assert.Equal(t, MaxSmoothing, ClampSmoothing(1.2))
	assert.Equal(t, MinSmoothing, ClampSmoothing(math.NaN()))

	s := NewSmoother(hd, 4)
	assert.Equal(t, MaxSmoothing, s.Factor())
	s.SetFactor(0.05)
	assert.Equal(t, MinSmoothing, s.Factor())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Zone")
	require.NoError(t, err)
	assert.Equal(t, ModeZone, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, m)

	_, err = ParseMode("polar")
	assert.Error(t, err)
}
