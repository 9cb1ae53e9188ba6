package services

import (
	"github.com/go-gota/gota/series"

	"airbnb-dashboard/models"
)

// MedianByNeighbourhood groups the table by neighbourhood and returns the
// median price_num of each group, in order of first appearance. Listings
// without a neighbourhood label are not grouped.
func MedianByNeighbourhood(table *models.Table) []models.NeighbourhoodMedian {
	var order []string
	prices := make(map[string][]float64)

	for _, l := range table.Listings() {
		if l.Neighbourhood == "" {
			continue
		}
		if _, seen := prices[l.Neighbourhood]; !seen {
			order = append(order, l.Neighbourhood)
		}
		prices[l.Neighbourhood] = append(prices[l.Neighbourhood], l.PriceNum)
	}

	out := make([]models.NeighbourhoodMedian, 0, len(order))
	for _, hood := range order {
		out = append(out, models.NeighbourhoodMedian{
			Neighbourhood: hood,
			MedianPrice:   median(prices[hood]),
			Count:         len(prices[hood]),
		})
	}
	return out
}

// OverallMedian returns the median price_num over the listings that carry a
// neighbourhood label, the same rows the linked view plots. It is 0 when
// there are none.
func OverallMedian(table *models.Table) float64 {
	var prices []float64
	for _, l := range table.Listings() {
		if l.Neighbourhood != "" {
			prices = append(prices, l.PriceNum)
		}
	}
	return median(prices)
}

// median returns the statistical median of values, or 0 for no values.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return series.Floats(values).Median()
}
