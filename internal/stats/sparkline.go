package stats

import (
	"math"
	"strings"
)

var sparkChars = []rune(" ▂▃▄▅▆▇█")

// SparkRange is an optional fixed scale for Sparkline.
type SparkRange struct {
	Min float64
	Max float64
}

// Sparkline renders values as block glyphs. Series longer than width are
// averaged down to width buckets. A nil scale uses the series' own min/max.
func Sparkline(values []float64, width int, scale *SparkRange) string {
	if len(values) == 0 {
		return ""
	}
	if width > 0 && len(values) > width {
		values = downsample(values, width)
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if scale != nil {
		minVal, maxVal = scale.Min, scale.Max
	}
	span := maxVal - minVal
	if span < 0.001 {
		return strings.Repeat(string(sparkChars[3]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		clamped := math.Max(minVal, math.Min(maxVal, v))
		idx := int((clamped - minVal) / span * float64(len(sparkChars)-1))
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// TrendScale returns the scale used for per-key daily WPM trends: the
// non-zero minimum and maximum widened by ten percent.
func TrendScale(daily []float64) SparkRange {
	first := true
	var r SparkRange
	for _, v := range daily {
		if v <= 0 {
			continue
		}
		if first {
			r = SparkRange{Min: v, Max: v}
			first = false
			continue
		}
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	if first {
		return SparkRange{Min: 0, Max: 100}
	}
	return SparkRange{Min: r.Min * 0.9, Max: r.Max * 1.1}
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

func downsample(values []float64, width int) []float64 {
	out := make([]float64, 0, width)
	chunk := float64(len(values)) / float64(width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * chunk)
		end := int(float64(i+1) * chunk)
		if end > len(values) {
			end = len(values)
		}
		if start >= end {
			continue
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out = append(out, sum/float64(end-start))
	}
	return out
}
