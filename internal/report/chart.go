// Package report renders static chart exports of study data.
package report

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/muridae/tumorboard/internal/study"
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorAlternateGray,
}

// WriteGroupMeanPNG renders the per-group mean volume-over-time chart as a
// PNG. Series with fewer than two points are skipped; an empty chart is an
// error.
func WriteGroupMeanPNG(w io.Writer, title string, series []study.Series) error {
	var chartSeries []chart.Series
	colorIdx := 0
	for _, s := range series {
		if len(s.Points) < 2 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = p.Day
			ys[i] = p.Volume
		}
		color := palette[colorIdx%len(palette)]
		colorIdx++
		chartSeries = append(chartSeries, chart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(chartSeries) == 0 {
		return fmt.Errorf("no series with enough points to render")
	}

	ch := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 480,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis:  chart.XAxis{Name: "Day"},
		YAxis:  chart.YAxis{Name: "Tumor volume"},
		Series: chartSeries,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
