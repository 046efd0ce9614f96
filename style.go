package hepflat

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"
)

// Style holds the plot appearance passed to the plotting tools. Series are
// colored by name first and by position otherwise.
type Style struct {
	Width   vg.Length
	Height  vg.Length
	Palette []color.RGBA
	Colors  map[string]color.RGBA
}

// DefaultStyle returns a 6x4 inch style with a black, green, blue, pink
// palette.
func DefaultStyle() Style {
	return Style{
		Width:  6 * vg.Inch,
		Height: 4 * vg.Inch,
		Palette: []color.RGBA{
			{A: 255},
			{G: 255, A: 255},
			{B: 255, A: 255},
			{R: 255, B: 127, G: 127, A: 255},
		},
		Colors: map[string]color.RGBA{},
	}
}

// Color returns the color of series name at position i.
func (s Style) Color(name string, i int) color.RGBA {
	if c, ok := s.Colors[name]; ok {
		return c
	}
	if len(s.Palette) == 0 {
		return color.RGBA{A: 255}
	}
	return s.Palette[i%len(s.Palette)]
}

type styleFile struct {
	WidthInch  float64           `yaml:"widthInch"`
	HeightInch float64           `yaml:"heightInch"`
	Palette    []string          `yaml:"palette"`
	Colors     map[string]string `yaml:"colors"`
}

// LoadStyle reads a YAML style file on top of DefaultStyle. Colors are
// written "#rrggbb" or "#rrggbbaa".
func LoadStyle(path string) (Style, error) {
	s := DefaultStyle()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading style: %w", err)
	}

	var f styleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return s, fmt.Errorf("parsing style: %w", err)
	}

	if f.WidthInch > 0 {
		s.Width = vg.Length(f.WidthInch) * vg.Inch
	}
	if f.HeightInch > 0 {
		s.Height = vg.Length(f.HeightInch) * vg.Inch
	}
	if len(f.Palette) > 0 {
		s.Palette = nil
		for _, h := range f.Palette {
			c, err := ParseColor(h)
			if err != nil {
				return s, err
			}
			s.Palette = append(s.Palette, c)
		}
	}
	for name, h := range f.Colors {
		c, err := ParseColor(h)
		if err != nil {
			return s, fmt.Errorf("color of %q: %w", name, err)
		}
		s.Colors[name] = c
	}
	return s, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(hex string) (color.RGBA, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
