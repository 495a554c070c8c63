// Package chart renders the top-N pathway summary as a circular bar plot.
// Render is a pure function of its inputs; there is no ambient canvas state.
package chart

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
)

// ErrNoData marks an empty input series. Callers skip the chart step instead
// of producing an empty image.
var ErrNoData = errors.New("chart: no data to render")

// Entry is one bar of the plot: a category label and its magnitude. The
// pipeline hands over (description, KO_count) pairs in rank order.
type Entry struct {
	Label string
	Count int
}

// Options controls presentation. Zero values fall back to sane defaults; the
// built-in bitmap face is used unless a TTF path is given.
type Options struct {
	Size     int
	FontPath string
}

const (
	defaultSize = 1200
	// barWidth is the angular width of each bar in radians.
	barWidth = 0.25
	// gridRings is the number of radial count gridlines.
	gridRings = 5
)

// Render draws the circular bar plot and returns the image. Bars are placed
// counterclockwise starting at the top; each bar's radius is proportional to
// its count, with a dashed guide continuing to the outer radius.
func Render(entries []Entry, opts Options) (image.Image, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	size := opts.Size
	if size <= 0 {
		size = defaultSize
	}

	dc := gg.NewContext(size, size)
	if opts.FontPath != "" {
		if err := dc.LoadFontFace(opts.FontPath, float64(size)/90); err != nil {
			return nil, fmt.Errorf("loading chart font: %w", err)
		}
	}

	dc.SetHexColor("#ffffff")
	dc.Clear()

	var (
		cx     = float64(size) / 2
		cy     = float64(size) / 2
		outerR = float64(size) * 0.34
		labelR = outerR + float64(size)*0.04
	)

	maxCount := 0
	for _, e := range entries {
		if e.Count > maxCount {
			maxCount = e.Count
		}
	}
	if maxCount == 0 {
		return nil, ErrNoData
	}
	step := int(math.Ceil(float64(maxCount) / gridRings))
	var ticks []int
	for tick := step; tick < maxCount; tick += step {
		ticks = append(ticks, tick)
	}
	ticks = append(ticks, maxCount)

	// Radial count gridlines with tick labels straight up from the center.
	dc.SetLineWidth(0.7)
	for _, tick := range ticks {
		r := outerR * float64(tick) / float64(maxCount)
		dc.SetDash(4, 4)
		dc.SetHexColor("#d3d3d3")
		dc.DrawCircle(cx, cy, r)
		dc.Stroke()
		dc.SetDash()
		dc.SetHexColor("#696969")
		dc.DrawStringAnchored(fmt.Sprintf("%d", tick), cx, cy-r, 1.1, 1.1)
	}

	angleStep := 2 * math.Pi / float64(len(entries))
	for i, e := range entries {
		angle := -math.Pi/2 + float64(i)*angleStep
		r := outerR * float64(e.Count) / float64(maxCount)

		// Bar sector.
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, r, angle-barWidth/2, angle+barWidth/2)
		dc.ClosePath()
		dc.SetHexColor("#87ceeb")
		dc.FillPreserve()
		dc.SetHexColor("#000000")
		dc.SetLineWidth(1)
		dc.Stroke()

		// Dashed guide from the bar tip to the outer radius.
		dc.SetDash(5, 5)
		dc.SetHexColor("#808080")
		dc.SetLineWidth(0.8)
		dc.DrawLine(
			cx+r*math.Cos(angle), cy+r*math.Sin(angle),
			cx+outerR*math.Cos(angle), cy+outerR*math.Sin(angle),
		)
		dc.Stroke()
		dc.SetDash()

		drawLabel(dc, e.Label, cx, cy, labelR, angle)
	}

	return dc.Image(), nil
}

// drawLabel places a category label just outside the plot, rotated to follow
// its bar and flipped on the left half so text never reads upside down.
func drawLabel(dc *gg.Context, label string, cx, cy, r, angle float64) {
	lx := cx + r*math.Cos(angle)
	ly := cy + r*math.Sin(angle)

	rotation := angle
	if math.Cos(angle) < 0 {
		rotation += math.Pi
	}

	dc.Push()
	dc.RotateAbout(rotation, lx, ly)
	dc.SetHexColor("#000000")
	anchor := 0.0
	if math.Cos(angle) < 0 {
		anchor = 1.0
	}
	dc.DrawStringAnchored(label, lx, ly, anchor, 0.5)
	dc.Pop()
}

// RenderFile renders the plot and writes it to path as a PNG.
func RenderFile(entries []Entry, opts Options, path string) error {
	img, err := Render(entries, opts)
	if err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("writing chart %s: %w", path, err)
	}
	return nil
}
