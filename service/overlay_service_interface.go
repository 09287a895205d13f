package service

import (
	"errors"
	"image"
	"image/color"

	"promo-designer/models"
)

// OverlayServiceInterface defines the contract for the color overlay pipeline
type OverlayServiceInterface interface {
	NeedsOverlay(target color.NRGBA) bool
	IntensityFor(target color.NRGBA) float64
	Overlay(base image.Image, target color.NRGBA, intensity float64) *image.NRGBA
	OverlayBytes(baseline []byte, hexColor string) ([]byte, error)
}

func isNotFoundErr(err error) bool { return errors.Is(err, models.ErrNotFound) }
