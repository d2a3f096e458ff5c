package render

import "errors"

// Render errors.
var (
	ErrUnknownFormat = errors.New("unknown image format")
	ErrFontLoad      = errors.New("failed to load font")
)
