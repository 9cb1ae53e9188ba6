package charts

import (
	"airbnb-dashboard/crossfilter"
	"airbnb-dashboard/models"
	"airbnb-dashboard/services"
)

// Linked builds the median-price bars over a scatter of the selected
// neighbourhoods' listings. Selected bars are steelblue, the rest lightgray,
// and a red rule marks the overall median. With nothing selected every bar
// is muted and the scatter is empty. Bar clicks are not a Vega-Lite
// selection: the page posts them to the session, which owns the state.
func Linked(table *models.Table, sel crossfilter.Selection) *Spec {
	return &Spec{
		Schema: SchemaURL,
		VConcat: []*Spec{
			{
				Width: "container",
				Layer: []*Spec{medianBars(table, sel), overallRule(table)},
			},
			selectedScatter(table, sel),
		},
	}
}

// medianRows pairs each neighbourhood median with its selection flag.
func medianRows(table *models.Table, sel crossfilter.Selection) []medianRow {
	medians := services.MedianByNeighbourhood(table)
	rows := make([]medianRow, 0, len(medians))
	for _, m := range medians {
		rows = append(rows, medianRow{
			Neighbourhood: m.Neighbourhood,
			MedianPrice:   m.MedianPrice,
			Selected:      sel.Contains(m.Neighbourhood),
		})
	}
	return rows
}

// SelectedRows returns the listings whose neighbourhood is selected.
func SelectedRows(table *models.Table, sel crossfilter.Selection) []*models.Listing {
	var out []*models.Listing
	if sel.Empty() {
		return out
	}
	for _, l := range table.Listings() {
		if l.Neighbourhood != "" && sel.Contains(l.Neighbourhood) {
			out = append(out, l)
		}
	}
	return out
}

func medianBars(table *models.Table, sel crossfilter.Selection) *Spec {
	y := nominal(models.ColNeighbourhood, "Neighborhood")
	y.Sort = sortBy("-x")

	return &Spec{
		Data: &Data{Name: "medians", Values: medianRows(table, sel)},
		Mark: &Mark{Type: "bar", Tooltip: true},
		Encoding: &Encoding{
			X:     quantitative("median_price", "Median Price"),
			Y:     y,
			Color: highlight(),
			Tooltip: []Channel{
				{Field: models.ColNeighbourhood, Type: "nominal", Title: "Neighborhood"},
				{Field: "median_price", Type: "quantitative", Title: "Median Price"},
			},
		},
	}
}

func overallRule(table *models.Table) *Spec {
	return &Spec{
		Data: &Data{Name: "overall", Values: []overallRow{{OverallMedian: services.OverallMedian(table)}}},
		Mark: &Mark{Type: "rule", Color: ColorRule, Size: 2},
		Encoding: &Encoding{
			X: quantitative("overall_median", "Median Price"),
		},
	}
}

func selectedScatter(table *models.Table, sel crossfilter.Selection) *Spec {
	listings := SelectedRows(table, sel)
	rows := make([]listingRow, 0, len(listings))
	for _, l := range listings {
		r := rowOf(l)
		r.Selected = true
		rows = append(rows, r)
	}

	x := quantitative(models.ColPriceNum, "Price")
	y := quantitative(models.ColRating, "Rating")
	if sel.Zoom != nil {
		x.Scale = &Scale{Domain: []float64{sel.Zoom.PriceMin, sel.Zoom.PriceMax}}
		y.Scale = &Scale{Domain: []float64{sel.Zoom.RatingMin, sel.Zoom.RatingMax}}
	}

	return &Spec{
		Width: "container",
		Data:  &Data{Name: "selected_listings", Values: rows},
		Mark:  &Mark{Type: "circle", Tooltip: true},
		Encoding: &Encoding{
			X:       x,
			Y:       y,
			Color:   highlight(),
			Tooltip: listingTooltip(),
		},
		Params: []Param{zoomParam("zoom")},
	}
}
