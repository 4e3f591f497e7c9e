// Package backend abstracts the terminal the application draws on.
package backend

import (
	"github.com/mattn/go-runewidth"

	"github.com/dshills/mdview/internal/renderer/core"
)

// EventType identifies the kind of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	EventInterrupt
)

// Event is a terminal input event.
type Event struct {
	Type EventType

	Key  Key
	Rune rune
	Mod  ModMask

	MouseX, MouseY int
	MouseButton    MouseButton

	Width, Height int
}

// Key is a keyboard key.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // printable character in Event.Rune
	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
	KeyCtrlL
)

// ModMask is a set of modifier keys.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// MouseButton is a mouse button or wheel direction.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// Backend is a drawable terminal.
type Backend interface {
	// Init prepares the terminal. It must be called before anything else.
	Init() error

	// Shutdown restores the terminal.
	Shutdown()

	// Size returns the terminal size in cells.
	Size() (width, height int)

	// SetCell sets one cell. Positions outside the terminal are ignored.
	SetCell(x, y int, cell core.Cell)

	// Fill sets every cell of rect.
	Fill(rect core.ScreenRect, cell core.Cell)

	// Clear blanks the screen.
	Clear()

	// Show flushes pending changes to the terminal.
	Show()

	// PollEvent blocks until the next event. It returns EventNone once
	// the backend has been shut down.
	PollEvent() Event

	// PostEvent queues a synthetic event.
	PostEvent(ev Event)
}

// DrawString draws s starting at (x, y) in style, clipped to width
// columns. It returns the number of columns drawn.
func DrawString(b Backend, x, y int, s string, style core.Style, width int) int {
	col := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > width {
			break
		}
		b.SetCell(x+col, y, core.Cell{Rune: r, Width: w, Style: style})
		col += w
	}
	return col
}
