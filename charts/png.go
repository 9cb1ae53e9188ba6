package charts

import (
	"errors"
	"fmt"
	"io"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"airbnb-dashboard/crossfilter"
	"airbnb-dashboard/models"
	"airbnb-dashboard/services"
)

var ErrNoData = errors.New("no neighbourhood data to chart")

var (
	pngSelected = drawing.ColorFromHex("4682b4")
	pngMuted    = drawing.ColorFromHex("d3d3d3")
)

const (
	pngBarWidth   = 24
	pngBarSpacing = 8
	pngHeight     = 480
)

// RenderMedianPNG writes the median-price bars as a static PNG, tallest
// first, coloured by sel the same way as the interactive view.
func RenderMedianPNG(w io.Writer, table *models.Table, sel crossfilter.Selection) error {
	rows := medianRows(table, sel)
	if len(rows) == 0 {
		return ErrNoData
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MedianPrice > rows[j].MedianPrice
	})

	bars := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		fill := pngMuted
		if r.Selected {
			fill = pngSelected
		}
		bars = append(bars, chart.Value{
			Label: r.Neighbourhood,
			Value: r.MedianPrice,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}

	// go-chart refuses a zero-height range, which a single bar would give.
	top := rows[0].MedianPrice * 1.1
	if top <= 0 {
		top = 1
	}

	bc := chart.BarChart{
		Title:      fmt.Sprintf("Median price by neighbourhood (overall $%.2f)", services.OverallMedian(table)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 120}},
		Width:      len(bars)*(pngBarWidth+pngBarSpacing) + 160,
		Height:     pngHeight,
		BarWidth:   pngBarWidth,
		BarSpacing: pngBarSpacing,
		XAxis:      chart.Style{TextRotationDegrees: 60},
		YAxis: chart.YAxis{
			Name:           "Median Price",
			Range:          &chart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: dollars,
		},
		Bars: bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render median png: %w", err)
	}
	return nil
}

func dollars(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("$%.0f", f)
	}
	return fmt.Sprint(v)
}
