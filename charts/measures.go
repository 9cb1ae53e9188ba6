package charts

import (
	"errors"
	"fmt"

	"airbnb-dashboard/models"
)

var ErrUnknownMeasure = errors.New("unknown measure")

// Measure pairs a user-facing label with the table field it plots.
type Measure struct {
	Label string `json:"label"`
	Field string `json:"field"`
}

// Measures is the fixed, ordered set of x-axis choices for the rating
// scatterplot. The first entry is the default.
var Measures = []Measure{
	{Label: "Price", Field: models.ColPriceNum},
	{Label: "Number of Beds", Field: models.ColBeds},
}

// DefaultMeasure returns the measure shown before the user picks one.
func DefaultMeasure() Measure {
	return Measures[0]
}

// LookupMeasure resolves a measure by its label.
func LookupMeasure(label string) (Measure, error) {
	for _, m := range Measures {
		if m.Label == label {
			return m, nil
		}
	}
	return Measure{}, fmt.Errorf("%w: %q", ErrUnknownMeasure, label)
}
