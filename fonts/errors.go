package fonts

import "errors"

var (
	// ErrFontNotFound is returned when no registered face matches the
	// requested family.
	ErrFontNotFound = errors.New("fonts: font not found")
	// ErrInvalidFont is returned when font data cannot be parsed.
	ErrInvalidFont = errors.New("fonts: invalid font data")
	// ErrEmptyMerged is returned when a merged family names no
	// sub-families.
	ErrEmptyMerged = errors.New("fonts: merged font has no sub-fonts")
)
