package calendar

import (
	"math"
	"time"

	"calassist/internal/model"
)

const (
	// DefaultHourHeight is used until a measured row height is reported.
	DefaultHourHeight = 50
	// DefaultMinHeight keeps zero-length events visible.
	DefaultMinHeight = 1
)

// Geometry is the vertical placement of a block inside a day column.
type Geometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Top is hour*H + minute*H/60.
func Top(start model.WallTime, hourHeight float64) float64 {
	return float64(start.Hour)*hourHeight + float64(start.Minute)*hourHeight/60
}

// Height is the unclamped distance between start and end; it is negative
// for an inverted range.
func Height(start, end model.WallTime, hourHeight float64) float64 {
	return float64(end.Hour-start.Hour)*hourHeight + float64(end.Minute-start.Minute)*hourHeight/60
}

// Mapper converts wall-clock times into pixel offsets using the latest
// measured hour-row height.
type Mapper struct {
	measured  float64
	fallback  float64
	minHeight float64
}

// NewMapper returns a Mapper that answers with fallback until
// SetHourHeight reports a measurement. Non-positive arguments take the
// package defaults.
func NewMapper(fallback, minHeight float64) *Mapper {
	if !usable(fallback) {
		fallback = DefaultHourHeight
	}
	if !usable(minHeight) {
		minHeight = DefaultMinHeight
	}
	return &Mapper{fallback: fallback, minHeight: minHeight}
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// SetHourHeight records the rendered row height, e.g. after a resize.
// Zero, negative or non-finite values forget the measurement.
func (m *Mapper) SetHourHeight(h float64) {
	if !usable(h) {
		m.measured = 0
		return
	}
	m.measured = h
}

// HourHeight returns the measured row height or the fallback.
func (m *Mapper) HourHeight() float64 {
	if m.measured > 0 {
		return m.measured
	}
	return m.fallback
}

func (m *Mapper) Top(start model.WallTime) float64 {
	return Top(start, m.HourHeight())
}

// Height is clamped to the minimum visible height.
func (m *Mapper) Height(start, end model.WallTime) float64 {
	return math.Max(Height(start, end, m.HourHeight()), m.minHeight)
}

// Place computes the block geometry of ev.
func (m *Mapper) Place(ev model.Event) (Geometry, error) {
	start, end, err := ev.Span()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{Top: m.Top(start), Height: m.Height(start, end)}, nil
}

// NowLine is the offset of the current-time indicator for now.
func (m *Mapper) NowLine(now time.Time) float64 {
	return m.Top(model.WallTimeOf(now))
}
