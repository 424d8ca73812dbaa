package spritegrid

import "errors"

// Errors returned by the conversion pipeline. Callers should compare with
// errors.Is as they are usually wrapped with the failing operation.
var (
	// ErrInvalidColorFormat is returned for malformed hex or RGB input.
	ErrInvalidColorFormat = errors.New("spritegrid: invalid color format")

	// ErrEmptySourceRegion is returned when a crop or resample has no area
	// to work with.
	ErrEmptySourceRegion = errors.New("spritegrid: empty source region")

	// ErrZoneNotFound means a zone map failed to cover an input. This is a
	// partitioning defect, not a recoverable condition.
	ErrZoneNotFound = errors.New("spritegrid: zone not found")

	// ErrEmptyPalette is returned when a palette has no opaque entries.
	ErrEmptyPalette = errors.New("spritegrid: palette has no opaque colors")

	// ErrInvalidPalette is returned for palettes that break the size or
	// naming rules.
	ErrInvalidPalette = errors.New("spritegrid: invalid palette")

	// ErrInvalidOptions is returned when conversion options are out of range.
	ErrInvalidOptions = errors.New("spritegrid: invalid options")
)
