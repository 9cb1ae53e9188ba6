package models

// Column names of the listings dataset.
const (
	ColPrice         = "price"
	ColRating        = "review_scores_rating"
	ColBeds          = "beds"
	ColNeighbourhood = "neighbourhood_cleansed"
	ColPriceNum      = "price_num"
)

// RequiredColumns lists the columns every listings source must provide.
var RequiredColumns = []string{ColPrice, ColRating, ColBeds, ColNeighbourhood}

// RawListing holds one unprocessed row exactly as read from the source.
// Numeric fields stay as text until the cleaner coerces them.
type RawListing struct {
	Price         string
	Rating        string
	Beds          string
	Neighbourhood string
}

// Listing is a cleaned record. PriceNum, Rating and Beds are always finite.
type Listing struct {
	Price         string  `json:"price"`
	PriceNum      float64 `json:"price_num"`
	Rating        float64 `json:"review_scores_rating"`
	Beds          float64 `json:"beds"`
	Neighbourhood string  `json:"neighbourhood_cleansed"`
}

// Table is the cleaned dataset. It is built once at startup and never
// modified afterwards; chart builders derive their own copies from it.
type Table struct {
	Source   string
	RawCount int
	listings []*Listing
}

// NewTable wraps cleaned listings. The slice is owned by the table from here on.
func NewTable(source string, rawCount int, listings []*Listing) *Table {
	return &Table{Source: source, RawCount: rawCount, listings: listings}
}

// Listings returns the cleaned rows in input order. Callers must not mutate them.
func (t *Table) Listings() []*Listing {
	return t.listings
}

// Len returns the number of cleaned rows.
func (t *Table) Len() int {
	return len(t.listings)
}

// Dropped returns how many raw rows the cleaner discarded.
func (t *Table) Dropped() int {
	return t.RawCount - len(t.listings)
}

// NeighbourhoodMedian is one row of the neighbourhood median price table.
type NeighbourhoodMedian struct {
	Neighbourhood string  `json:"neighbourhood_cleansed"`
	MedianPrice   float64 `json:"median_price"`
	Count         int     `json:"count"`
}

// InsightReport holds the computed summary over the cleaned dataset.
type InsightReport struct {
	Source                  string         `json:"source"`
	RawListings             int            `json:"raw_listings"`
	TotalListings           int            `json:"total_listings"`
	DroppedListings         int            `json:"dropped_listings"`
	AveragePrice            float64        `json:"average_price"`
	MedianPrice             float64        `json:"median_price"`
	MinPrice                float64        `json:"min_price"`
	MaxPrice                float64        `json:"max_price"`
	MostExpensive           *Listing       `json:"most_expensive,omitempty"`
	TopRated                []*Listing     `json:"top_rated"`
	ListingsByNeighbourhood map[string]int `json:"listings_by_neighbourhood"`
}
