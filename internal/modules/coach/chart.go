package coach

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

var ErrNoTrend = errors.New("at least two metric entries are needed for a trend")

var (
	chartBackground = color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	chartBar        = color.NRGBA{R: 0x06, G: 0xb6, B: 0xd4, A: 0x99}
	chartAxis       = color.NRGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xff}
	chartLabel      = color.NRGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff}
)

// ChartRenderer draws the weight trend as a PNG bar chart.
type ChartRenderer struct {
	Width    int
	Height   int
	FontPath string // optional TTF; the built-in face covers digits and dates
	FontSize float64

	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
}

func NewChartRenderer(fontPath string) *ChartRenderer {
	return &ChartRenderer{Width: 640, Height: 240, FontPath: fontPath, FontSize: 13}
}

// fontFace parses FontPath on first use. Faces keep glyph caches and are not
// safe for concurrent use, so each render gets its own.
func (r *ChartRenderer) fontFace() (font.Face, error) {
	r.fontOnce.Do(func() {
		raw, err := os.ReadFile(r.FontPath)
		if err != nil {
			r.fontErr = fmt.Errorf("load chart font: %w", err)
			return
		}
		f, err := truetype.Parse(raw)
		if err != nil {
			r.fontErr = fmt.Errorf("parse chart font: %w", err)
			return
		}
		r.font = f
	})
	if r.fontErr != nil {
		return nil, r.fontErr
	}
	return truetype.NewFace(r.font, &truetype.Options{Size: r.FontSize, DPI: 72, Hinting: font.HintingNone}), nil
}

func (r *ChartRenderer) Render(points []TrendPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, ErrNoTrend
	}
	const (
		padX      = 16.0
		padTop    = 16.0
		padBottom = 28.0
		gap       = 8.0
	)
	w, h := float64(r.Width), float64(r.Height)

	dc := gg.NewContext(r.Width, r.Height)
	dc.SetColor(chartBackground)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	if r.FontPath != "" {
		face, err := r.fontFace()
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
	}

	plotH := h - padTop - padBottom
	baseY := padTop + plotH
	slot := (w - 2*padX) / float64(len(points))
	barW := slot - gap
	if barW < 1 {
		barW = 1
	}

	dc.SetColor(chartBar)
	for i, p := range points {
		barH := p.Height * plotH
		x := padX + float64(i)*slot + gap/2
		dc.DrawRoundedRectangle(x, baseY-barH, barW, barH, 2)
		dc.Fill()
	}

	dc.SetColor(chartAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(padX, baseY+0.5, w-padX, baseY+0.5)
	dc.Stroke()

	dc.SetColor(chartLabel)
	labelY := baseY + padBottom/2
	dc.DrawStringAnchored(points[0].Date, padX, labelY, 0, 0.5)
	dc.DrawStringAnchored(points[len(points)-1].Date, w-padX, labelY, 1, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderChart draws the trend for the snapshot's history.
func (r *ChartRenderer) RenderChart(s Snapshot) ([]byte, error) {
	if len(s.History) < 2 {
		return nil, ErrNoTrend
	}
	return r.Render(trendPoints(s.History))
}
