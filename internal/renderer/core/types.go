// Package core provides the cell and style types shared by the drawing
// code and the terminal backends.
package core

import "github.com/mattn/go-runewidth"

// Attribute is a set of text attributes.
type Attribute uint16

// Text attribute flags.
const (
	AttrNone      Attribute = 0
	AttrBold      Attribute = 1 << iota
	AttrDim                 // faint
	AttrItalic
	AttrUnderline
	AttrReverse
)

// Has reports whether a contains attr.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// Color is a terminal color: the default color, a palette index, or RGB.
type Color struct {
	R, G, B uint8
	// Indexed means R holds a palette index.
	Indexed bool
	Default bool
}

// ColorDefault is the terminal's default color.
var ColorDefault = Color{Default: true}

// ColorFromIndex creates a palette color.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// ColorFromRGB creates a true color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Style is the visual style of a cell.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the terminal's default style.
func DefaultStyle() Style {
	return Style{Foreground: ColorDefault, Background: ColorDefault}
}

// WithForeground returns s with the foreground set to fg.
func (s Style) WithForeground(fg Color) Style {
	s.Foreground = fg
	return s
}

// With returns s with attrs added.
func (s Style) With(attrs Attribute) Style {
	s.Attributes |= attrs
	return s
}

// Cell is a single terminal cell.
type Cell struct {
	Rune  rune
	Width int
	Style Style
}

// EmptyCell returns a blank cell in the default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// NewStyledCell creates a cell for r in style.
func NewStyledCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: runewidth.RuneWidth(r), Style: style}
}

// ScreenRect is a rectangle of cells. Bottom and Right are exclusive.
type ScreenRect struct {
	Top, Left, Bottom, Right int
}

// RectFromSize creates a rectangle from its origin and size.
func RectFromSize(top, left, height, width int) ScreenRect {
	return ScreenRect{Top: top, Left: left, Bottom: top + height, Right: left + width}
}

// Width returns the rectangle width.
func (r ScreenRect) Width() int {
	return max(r.Right-r.Left, 0)
}

// Height returns the rectangle height.
func (r ScreenRect) Height() int {
	return max(r.Bottom-r.Top, 0)
}

// Contains reports whether the cell at (x, y) is inside r.
func (r ScreenRect) Contains(x, y int) bool {
	return y >= r.Top && y < r.Bottom && x >= r.Left && x < r.Right
}
