package models

// ObjectRole tags what a node on the design surface is. The role is set at
// creation time and never inferred from names or positions.
type ObjectRole string

const (
	RoleTemplate    ObjectRole = "template"
	RoleGuide       ObjectRole = "guide"
	RoleUserContent ObjectRole = "userContent"
)

// ObjectKind discriminates the two user-content payloads.
type ObjectKind string

const (
	KindText  ObjectKind = "text"
	KindImage ObjectKind = "image"
)

// Transform places an object in the authored asset's pixel space. Position
// is the object's center (anchor "center" is the only convention the
// surface produces, but the field is persisted so snapshots stay
// self-describing).
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"` // degrees
	FlipX    bool    `json:"flipX"`
	FlipY    bool    `json:"flipY"`
	Anchor   string  `json:"anchor"`
}

// DesignObject is one node on the design surface: the template image, a
// print-area guide, or a user-added text/image element.
type DesignObject struct {
	ID   string     `json:"id"`
	Role ObjectRole `json:"role"`
	Kind ObjectKind `json:"kind,omitempty"`

	// Text payload
	Text     string  `json:"text,omitempty"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
	Align    string  `json:"align,omitempty"`

	// Image payload
	SourceRef string `json:"sourceRef,omitempty"`

	// Native (unscaled) bounding box in authored pixels.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Transform Transform `json:"transform"`
}

// IsUserContent reports whether the object belongs to the buyer (and so is
// subject to save/restore and constraint enforcement).
func (o *DesignObject) IsUserContent() bool {
	return o.Role == RoleUserContent
}
