package charts

import "airbnb-dashboard/models"

// Scatter plots rating against the chosen measure for every listing in the
// table. Pan and zoom happen in the browser.
func Scatter(table *models.Table, m Measure) *Spec {
	listings := table.Listings()
	rows := make([]listingRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, rowOf(l))
	}

	return &Spec{
		Schema: SchemaURL,
		Width:  "container",
		Data:   &Data{Name: "listings", Values: rows},
		Mark:   &Mark{Type: "circle", Tooltip: true},
		Encoding: &Encoding{
			X:       quantitative(m.Field, m.Label),
			Y:       quantitative(models.ColRating, "Rating"),
			Tooltip: listingTooltip(),
		},
		Params: []Param{zoomParam("grid")},
	}
}
