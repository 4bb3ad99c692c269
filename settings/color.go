package settings

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a CSS-style hex color, either #rgb or #rrggbb.
type Color string

// NRGBA parses the color. The result is fully opaque.
func (c Color) NRGBA() (color.NRGBA, error) {
	s, ok := strings.CutPrefix(string(c), "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("color %q must start with #", string(c))
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q must have 3 or 6 hex digits", string(c))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", string(c), err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// MustNRGBA is NRGBA for colors that already passed validation. Invalid
// colors render as opaque black.
func (c Color) MustNRGBA() color.NRGBA {
	v, err := c.NRGBA()
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return v
}
