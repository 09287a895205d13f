package models

import (
	"fmt"
	"time"
)

// SnapshotKey identifies the exact variant tuple a snapshot belongs to.
// Objects saved under one tuple never leak into another.
type SnapshotKey struct {
	ProductKey   string `json:"productKey"`
	ColorName    string `json:"colorName"`
	View         View   `json:"view"`
	PrintAreaKey string `json:"printAreaKey"`
}

// String renders the persisted-store key: productKey-colorName-view-printAreaKey.
func (k SnapshotKey) String() string {
	return fmt.Sprintf("%s-%s-%s-%s", k.ProductKey, k.ColorName, k.View, k.PrintAreaKey)
}

// SnapshotEntry is one serialized user-owned design object. Only type,
// content/source and the full transform are persisted; guides and the
// template image are never part of a snapshot.
type SnapshotEntry struct {
	Kind      ObjectKind `json:"kind"`
	Text      string     `json:"text,omitempty"`
	Font      string     `json:"font,omitempty"`
	FontSize  float64    `json:"fontSize,omitempty"`
	Color     string     `json:"color,omitempty"`
	Align     string     `json:"align,omitempty"`
	SourceRef string     `json:"sourceRef,omitempty"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Transform Transform  `json:"transform"`
}

// Snapshot is the persisted design state for one tuple. An empty Entries
// slice is a valid snapshot: saving with nothing on the surface clears the
// previous one by overwrite.
type Snapshot struct {
	Key     SnapshotKey     `json:"key"`
	SavedAt time.Time       `json:"savedAt"`
	Entries []SnapshotEntry `json:"entries"`
}
