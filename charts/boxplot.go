package charts

import "airbnb-dashboard/models"

// MinBoxplotRating is the rating floor of the boxplot view. Lower ratings are
// outliers that would flatten the boxes; other views keep them.
const MinBoxplotRating = 3.0

// BoxplotRows returns the listings the boxplot draws: labelled with a
// neighbourhood and rated at least MinBoxplotRating, in table order.
func BoxplotRows(table *models.Table) []*models.Listing {
	var out []*models.Listing
	for _, l := range table.Listings() {
		if l.Neighbourhood == "" || l.Rating < MinBoxplotRating {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Boxplot draws one rating distribution per neighbourhood. Neighbourhoods
// keep their table order and the rating axis is fixed to [3, 5].
func Boxplot(table *models.Table) *Spec {
	listings := BoxplotRows(table)
	rows := make([]listingRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, rowOf(l))
	}

	x := nominal(models.ColNeighbourhood, "Neighborhood")
	x.Sort = sortNone

	y := quantitative(models.ColRating, "Rating")
	y.Scale = &Scale{Domain: []float64{MinBoxplotRating, 5}, Zero: boolPtr(false)}

	return &Spec{
		Schema: SchemaURL,
		Width:  450,
		Data:   &Data{Name: "listings", Values: rows},
		Mark:   &Mark{Type: "boxplot"},
		Encoding: &Encoding{
			X: x,
			Y: y,
			Tooltip: []Channel{
				{Field: models.ColNeighbourhood, Type: "nominal", Title: "Neighborhood"},
				{Field: models.ColRating, Type: "quantitative", Title: "Rating"},
			},
		},
	}
}
