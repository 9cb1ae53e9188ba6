package charts

import "airbnb-dashboard/models"

// listingRow is the inlined datum for scatter and boxplot marks.
type listingRow struct {
	Neighbourhood string  `json:"neighbourhood_cleansed"`
	PriceNum      float64 `json:"price_num"`
	Rating        float64 `json:"review_scores_rating"`
	Beds          float64 `json:"beds"`
	Selected      bool    `json:"selected,omitempty"`
}

func rowOf(l *models.Listing) listingRow {
	return listingRow{
		Neighbourhood: l.Neighbourhood,
		PriceNum:      l.PriceNum,
		Rating:        l.Rating,
		Beds:          l.Beds,
	}
}

type medianRow struct {
	Neighbourhood string  `json:"neighbourhood_cleansed"`
	MedianPrice   float64 `json:"median_price"`
	Selected      bool    `json:"selected"`
}

type overallRow struct {
	OverallMedian float64 `json:"overall_median"`
}

func listingTooltip() []Channel {
	return []Channel{
		{Field: models.ColNeighbourhood, Type: "nominal", Title: "Neighborhood"},
		{Field: models.ColPriceNum, Type: "quantitative", Title: "Price"},
		{Field: models.ColRating, Type: "quantitative", Title: "Rating"},
	}
}
