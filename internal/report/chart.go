package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Series is a named line on a chart.
type Series struct {
	Name   string
	Values []float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultChartHeight = 8
	minChartWidth      = 10
	axisSeparator      = " │ "
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

// ChartWidthFor returns the plot width that fits next to the axis in totalWidth.
func ChartWidthFor(totalWidth, axisWidth int) int {
	width := totalWidth - axisWidth - lipgloss.Width(axisSeparator)
	if width < minChartWidth {
		return minChartWidth
	}
	return width
}

// lineChart plots every series on one shared WPM scale using braille dots.
func (s Styles) lineChart(series []Series, width, height int) []string {
	var kept []Series
	for _, ser := range series {
		if len(ser.Values) > 0 {
			kept = append(kept, ser)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultChartHeight
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, ser := range kept {
		for _, v := range ser.Values {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxVal-minVal < 1e-9 {
		minVal--
		maxVal++
	}

	labels := axisLabels(height, minVal, maxVal)
	axisWidth := 0
	for _, l := range labels {
		if w := lipgloss.Width(l); w > axisWidth {
			axisWidth = w
		}
	}
	if width <= 0 {
		width = ChartWidthFor(TerminalWidth(80), axisWidth)
	}
	if width < minChartWidth {
		width = minChartWidth
	}

	palette := []lipgloss.Style{s.Cyan, s.Magenta, s.Yellow}
	cells := make([][][]uint8, len(kept))
	for si, ser := range kept {
		cells[si] = makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for x, v := range resampleSeries(ser.Values, width) {
			px, py := x*2, valueToRow(v, minVal, maxVal, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(cells[si], dx, dy)
					}
				})
			} else if style.shouldPlot(px) {
				setBrailleDot(cells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	lines := make([]string, 0, height+1)
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(s.Dim.Render(fmt.Sprintf("%*s", axisWidth, labels[y]) + axisSeparator))
		for x := 0; x < width; x++ {
			mask, owner := composeCell(cells, x, y)
			ch := string(brailleFromMask(mask))
			if owner >= 0 {
				ch = palette[owner%len(palette)].Render(ch)
			}
			row.WriteString(ch)
		}
		lines = append(lines, row.String())
	}

	legend := make([]string, len(kept))
	for i, ser := range kept {
		label := fmt.Sprintf("%c %s (%s)", brailleFromMask(0x01), ser.Name, lineStyles[i%len(lineStyles)].name)
		legend[i] = palette[i%len(palette)].Render(label)
	}
	lines = append(lines, "Legend: "+strings.Join(legend, "  "))
	return lines
}

func axisLabels(height int, minVal, maxVal float64) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.0f", maxVal)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.0f", (minVal+maxVal)/2)
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.0f", minVal)
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges the dots of every series; the first series drawing in
// the cell owns its colour.
func composeCell(series [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, cells := range series {
		if y >= len(cells) || x >= len(cells[y]) {
			continue
		}
		if cells[y][x] == 0 {
			continue
		}
		if owner == -1 {
			owner = i
		}
		mask |= cells[y][x]
	}
	return mask, owner
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// resampleSeries averages down or linearly interpolates up to width points.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := 0; i < width; i++ {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(math.Floor(pos))
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		return 0
	}
	if row >= height {
		return height - 1
	}
	return row
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cy, cx := y/4, x/2
	if cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot inside a 2x4 braille cell to its bit.
func brailleDotMask(x, y int) uint8 {
	left := [4]uint8{0x01, 0x02, 0x04, 0x40}
	right := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if x == 0 {
		return left[y]
	}
	return right[y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
