package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/blackshadow44/Substanz/internal/analysis"
)

// Width and Height are the rendered chart dimensions.
const (
	Width  = 900
	Height = 420
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 40
	marginBottom = 50
)

var (
	background = color.RGBA{250, 250, 250, 255}
	gridColor  = color.RGBA{225, 225, 225, 255}
	axisColor  = color.RGBA{120, 120, 120, 255}
	heartColor = color.RGBA{200, 60, 60, 255}
	sleepColor = color.RGBA{70, 110, 200, 255}
	markColor  = color.RGBA{230, 160, 40, 255}
	textColor  = color.RGBA{60, 60, 60, 255}
)

// RenderDaily draws the daily overview: a heart-rate line, sleep hours as
// bars, and a marker on days with consumption entries. Returns PNG bytes.
func RenderDaily(rows []analysis.DayMetrics) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(img, background)

	drawText(img, "Tagesübersicht: Herzfrequenz, Schlaf, Konsum", marginLeft, 20, textColor)

	if len(rows) == 0 {
		drawText(img, "Keine Daten vorhanden", Width/2-70, Height/2, axisColor)
		return encode(img)
	}

	plotW := Width - marginLeft - marginRight
	plotH := Height - marginTop - marginBottom

	maxHR, maxSleepH := 1.0, 1.0
	for k := range rows {
		if rows[k].AvgHeartRate > maxHR {
			maxHR = rows[k].AvgHeartRate
		}
		if h := sleepHours(&rows[k]); h > maxSleepH {
			maxSleepH = h
		}
	}

	// Horizontal grid with heart-rate labels on the left axis.
	for i := 0; i <= 4; i++ {
		y := marginTop + plotH*i/4
		hline(img, marginLeft, Width-marginRight, y, gridColor)
		label := fmt.Sprintf("%.0f", maxHR*float64(4-i)/4)
		drawText(img, label, 8, y+4, axisColor)
	}

	step := float64(plotW) / float64(len(rows))
	xAt := func(i int) int { return marginLeft + int(step*(float64(i)+0.5)) }

	// Sleep bars first so the heart-rate line stays on top.
	barW := int(step * 0.5)
	if barW < 2 {
		barW = 2
	}
	for i := range rows {
		h := sleepHours(&rows[i])
		if h <= 0 {
			continue
		}
		barH := int(float64(plotH) * h / maxSleepH)
		x := xAt(i)
		vbar(img, x-barW/2, x+barW/2, Height-marginBottom-barH, Height-marginBottom, sleepColor)
	}

	// Heart-rate line across days that have data.
	prevX, prevY := -1, -1
	for i := range rows {
		if !rows[i].HasHeartRate {
			prevX = -1
			continue
		}
		x := xAt(i)
		y := marginTop + plotH - int(float64(plotH)*rows[i].AvgHeartRate/maxHR)
		if prevX >= 0 {
			line(img, prevX, prevY, x, y, heartColor)
		}
		dot(img, x, y, heartColor)
		prevX, prevY = x, y
	}

	// Consumption markers along the bottom.
	for i := range rows {
		if rows[i].ConsumptionCount > 0 {
			dot(img, xAt(i), Height-marginBottom+10, markColor)
		}
	}

	// Date labels for first, middle, and last day.
	for _, i := range []int{0, len(rows) / 2, len(rows) - 1} {
		drawText(img, rows[i].Date.Format("02.01."), xAt(i)-18, Height-marginBottom+30, axisColor)
	}

	hline(img, marginLeft, Width-marginRight, Height-marginBottom, axisColor)
	return encode(img)
}

func sleepHours(d *analysis.DayMetrics) float64 {
	total := d.TotalSleepMin + d.DeepSleepMin + d.LightSleepMin + d.REMSleepMin
	return total / 60
}

func encode(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func hline(img *image.RGBA, x0, x1, y int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, c)
	}
}

func vbar(img *image.RGBA, x0, x1, y0, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func dot(img *image.RGBA, cx, cy int, c color.RGBA) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx*dx+dy*dy <= 4 {
				img.SetRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

// line draws with integer Bresenham steps.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
