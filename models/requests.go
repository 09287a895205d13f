package models

// OpenSessionRequest opens a designer session for a product
type OpenSessionRequest struct {
	ProductKey string `json:"productKey"`
}

// SelectRequest changes the session's selection. Exactly one field should
// be set; when several are, only the first non-empty one applies, checked
// in product, view, color, print-area order.
type SelectRequest struct {
	ProductKey   string `json:"productKey,omitempty"`
	View         string `json:"view,omitempty"`
	ColorName    string `json:"colorName,omitempty"`
	PrintAreaKey string `json:"printAreaKey,omitempty"`
}

// AddObjectRequest places a new text or image object on the surface
type AddObjectRequest struct {
	Kind string `json:"kind"` // text | image

	// Text fields
	Text     string  `json:"text,omitempty"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
	Align    string  `json:"align,omitempty"`

	// Image fields: base64-encoded source data
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// TransformRequest applies one object-level operation
type TransformRequest struct {
	Op string `json:"op"` // move | scale | rotate | nudge | flip | select

	// move
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// scale
	FactorX float64 `json:"factorX,omitempty"`
	FactorY float64 `json:"factorY,omitempty"`

	// rotate: whole 15-degree steps
	Steps int `json:"steps,omitempty"`

	// nudge
	Direction string `json:"direction,omitempty"` // up | down | left | right
	Coarse    bool   `json:"coarse,omitempty"`

	// flip
	Axis string `json:"axis,omitempty"` // x | y
}
