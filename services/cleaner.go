package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

// nonPriceRegexp matches every character that is not part of a plain decimal number.
var nonPriceRegexp = regexp.MustCompile(`[^0-9.]`)

// Cleaner transforms RawListings into a cleaned, immutable Table.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean derives price_num for every raw row and keeps only rows whose
// price_num, rating and beds are all present. Rows are never repaired: a row
// either has all three numeric fields or it is dropped.
func (c *Cleaner) Clean(source string, raw []*models.RawListing) *models.Table {
	result := make([]*models.Listing, 0, len(raw))

	for i, r := range raw {
		price, ok := ParsePrice(r.Price)
		if !ok {
			c.logger.Debug("[cleaner] Row %d dropped: unusable price %q", i+1, r.Price)
			continue
		}
		rating, ok := parseNumber(r.Rating)
		if !ok {
			c.logger.Debug("[cleaner] Row %d dropped: missing rating", i+1)
			continue
		}
		beds, ok := parseNumber(r.Beds)
		if !ok {
			c.logger.Debug("[cleaner] Row %d dropped: missing beds", i+1)
			continue
		}

		result = append(result, &models.Listing{
			Price:         r.Price,
			PriceNum:      price,
			Rating:        rating,
			Beds:          beds,
			Neighbourhood: normaliseText(r.Neighbourhood),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return models.NewTable(source, len(raw), result)
}

// ParsePrice strips currency symbols, thousands separators and anything else
// outside [0-9.] and parses the rest as a float.
//
//	"$1,234.50" → 1234.50
//	"1234.50"   → 1234.50
//
// It reports false for empty input or a remainder that is not a number.
func ParsePrice(raw string) (float64, bool) {
	cleaned := nonPriceRegexp.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseNumber parses a numeric cell, treating blanks and NA markers as missing.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
