// Package charts builds Vega-Lite specifications for the dashboard views.
// Builders are pure: they read a cleaned table (and, for the linked view, a
// selection snapshot) and return a new spec with the data inlined.
package charts

import "encoding/json"

const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Colours shared by the linked bar and scatter views.
const (
	ColorSelected = "steelblue"
	ColorMuted    = "lightgray"
	ColorRule     = "red"
)

// sortNone serialises as a literal null, which keeps categorical axes in
// data order.
var sortNone = json.RawMessage("null")

// Spec is the subset of a Vega-Lite top-level, layer or concat spec used here.
type Spec struct {
	Schema      string      `json:"$schema,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Width       interface{} `json:"width,omitempty"`
	Height      interface{} `json:"height,omitempty"`
	Data        *Data       `json:"data,omitempty"`
	Mark        *Mark       `json:"mark,omitempty"`
	Encoding    *Encoding   `json:"encoding,omitempty"`
	Params      []Param     `json:"params,omitempty"`
	Transform   []Transform `json:"transform,omitempty"`
	Layer       []*Spec     `json:"layer,omitempty"`
	VConcat     []*Spec     `json:"vconcat,omitempty"`
}

type Data struct {
	Name   string      `json:"name,omitempty"`
	Values interface{} `json:"values"`
}

type Mark struct {
	Type    string `json:"type"`
	Tooltip bool   `json:"tooltip,omitempty"`
	Color   string `json:"color,omitempty"`
	Size    int    `json:"size,omitempty"`
}

type Encoding struct {
	X       *Channel  `json:"x,omitempty"`
	Y       *Channel  `json:"y,omitempty"`
	Color   *Channel  `json:"color,omitempty"`
	Tooltip []Channel `json:"tooltip,omitempty"`
}

// Channel is one encoding channel. Either Field or Value is set; Condition
// may accompany Value.
type Channel struct {
	Field     string          `json:"field,omitempty"`
	Type      string          `json:"type,omitempty"`
	Title     string          `json:"title,omitempty"`
	Sort      json.RawMessage `json:"sort,omitempty"`
	Scale     *Scale          `json:"scale,omitempty"`
	Condition *Condition      `json:"condition,omitempty"`
	Value     interface{}     `json:"value,omitempty"`
}

type Condition struct {
	Test  string      `json:"test,omitempty"`
	Param string      `json:"param,omitempty"`
	Value interface{} `json:"value"`
}

type Scale struct {
	Domain []float64 `json:"domain,omitempty"`
	Zero   *bool     `json:"zero,omitempty"`
}

// Param declares a Vega-Lite selection parameter.
type Param struct {
	Name   string      `json:"name"`
	Select interface{} `json:"select"`
	Bind   interface{} `json:"bind,omitempty"`
}

type Transform struct {
	Filter interface{} `json:"filter,omitempty"`
}

func quantitative(field, title string) *Channel {
	return &Channel{Field: field, Type: "quantitative", Title: title}
}

func nominal(field, title string) *Channel {
	return &Channel{Field: field, Type: "nominal", Title: title}
}

func sortBy(order string) json.RawMessage {
	b, _ := json.Marshal(order)
	return b
}

// highlight colours marks whose datum.selected is true and mutes the rest.
func highlight() *Channel {
	return &Channel{
		Condition: &Condition{Test: "datum.selected", Value: ColorSelected},
		Value:     ColorMuted,
	}
}

// zoomParam binds an interval selection to the view's scales, giving
// drag-to-pan and wheel-to-zoom.
func zoomParam(name string) Param {
	return Param{Name: name, Select: "interval", Bind: "scales"}
}

func boolPtr(b bool) *bool { return &b }
