package backend

import (
	"sync"

	"github.com/dshills/mdview/internal/renderer/core"
)

// NullBackend is an in-memory backend for tests.
type NullBackend struct {
	width, height int
	cells         [][]core.Cell
	shows         int

	mu     sync.Mutex
	events chan Event
	closed bool
}

// NewNullBackend creates a null backend of the given size.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{
		width:  width,
		height: height,
		events: make(chan Event, 100),
	}
}

func (b *NullBackend) Init() error {
	b.alloc()
	return nil
}

func (b *NullBackend) alloc() {
	b.cells = make([][]core.Cell, b.height)
	for y := range b.cells {
		b.cells[y] = make([]core.Cell, b.width)
		for x := range b.cells[y] {
			b.cells[y][x] = core.EmptyCell()
		}
	}
}

func (b *NullBackend) Shutdown() {}

func (b *NullBackend) Size() (int, int) {
	return b.width, b.height
}

func (b *NullBackend) SetCell(x, y int, cell core.Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = cell
	}
}

func (b *NullBackend) Fill(rect core.ScreenRect, cell core.Cell) {
	for y := max(rect.Top, 0); y < rect.Bottom && y < b.height; y++ {
		for x := max(rect.Left, 0); x < rect.Right && x < b.width; x++ {
			b.cells[y][x] = cell
		}
	}
}

func (b *NullBackend) Clear() {
	b.Fill(core.ScreenRect{Bottom: b.height, Right: b.width}, core.EmptyCell())
}

func (b *NullBackend) Show() {
	b.shows++
}

func (b *NullBackend) PollEvent() Event {
	ev, ok := <-b.events
	if !ok {
		return Event{Type: EventNone}
	}
	return ev
}

func (b *NullBackend) PostEvent(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- ev:
	default:
	}
}

// Cell returns the cell at (x, y).
func (b *NullBackend) Cell(x, y int) core.Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return core.EmptyCell()
}

// Line returns row y as text with trailing blanks removed.
func (b *NullBackend) Line(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	runes := make([]rune, 0, b.width)
	for x := 0; x < b.width; x++ {
		c := b.cells[y][x]
		if c.Width == 0 {
			continue
		}
		runes = append(runes, c.Rune)
		x += c.Width - 1
	}
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	return string(runes[:end])
}

// Shows returns how many times Show was called.
func (b *NullBackend) Shows() int {
	return b.shows
}

// Resize changes the size and posts a resize event.
func (b *NullBackend) Resize(width, height int) {
	b.width, b.height = width, height
	b.alloc()
	b.PostEvent(Event{Type: EventResize, Width: width, Height: height})
}

// Close makes PollEvent return EventNone once queued events are drained.
func (b *NullBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}
