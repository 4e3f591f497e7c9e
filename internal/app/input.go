package app

import (
	"github.com/dshills/mdview/internal/renderer/backend"
)

// wheelStep is the number of rows one mouse wheel notch scrolls.
const wheelStep = 3

// handleEvent processes a backend event and routes it appropriately.
// Returns ErrQuit if the application should exit.
func (a *Application) handleEvent(ev backend.Event) error {
	a.metrics.RecordInput()
	defer a.invalidate()

	switch ev.Type {
	case backend.EventResize:
		a.resize(ev.Width, ev.Height)
	case backend.EventKey:
		return a.handleKey(ev)
	case backend.EventMouse:
		a.handleMouse(ev)
	}
	return nil
}

// handleKey processes keyboard input.
func (a *Application) handleKey(ev backend.Event) error {
	_, _, ph := a.paneSizes()
	page := max(ph-1, 1)

	switch ev.Key {
	case backend.KeyCtrlC:
		return ErrQuit
	case backend.KeyTab, backend.KeyBacktab:
		a.toggleFocus()
	case backend.KeyUp:
		a.scrollFocused(-1)
	case backend.KeyDown:
		a.scrollFocused(1)
	case backend.KeyPageUp:
		a.scrollFocused(-page)
	case backend.KeyPageDown:
		a.scrollFocused(page)
	case backend.KeyHome:
		a.scrollFocusedTo(0)
	case backend.KeyEnd:
		a.scrollFocusedTo(a.maxScrollFocused())
	case backend.KeyCtrlL:
		a.backend.Clear()
	case backend.KeyRune:
		return a.handleRune(ev.Rune, page)
	}
	return nil
}

func (a *Application) handleRune(r rune, page int) error {
	switch r {
	case 'q':
		return ErrQuit
	case 'j':
		a.scrollFocused(1)
	case 'k':
		a.scrollFocused(-1)
	case ' ', 'f':
		a.scrollFocused(page)
	case 'b':
		a.scrollFocused(-page)
	case 'g':
		a.scrollFocusedTo(0)
	case 'G':
		a.scrollFocusedTo(a.maxScrollFocused())
	case 'p':
		a.toggleLayout()
	case 'r':
		a.reloadDocument()
	}
	return nil
}

// handleMouse scrolls the pane under the pointer and focuses it on click.
func (a *Application) handleMouse(ev backend.Event) {
	pane := FocusSource
	if ev.MouseX > a.separatorX() {
		pane = FocusPreview
	}

	switch ev.MouseButton {
	case backend.MouseLeft:
		a.focus = pane
	case backend.MouseWheelUp:
		a.scrollPane(pane, -wheelStep)
	case backend.MouseWheelDown:
		a.scrollPane(pane, wheelStep)
	}
}

func (a *Application) toggleFocus() {
	if a.focus == FocusSource {
		a.focus = FocusPreview
	} else {
		a.focus = FocusSource
	}
}

func (a *Application) scrollFocused(delta int) {
	a.scrollPane(a.focus, delta)
}

func (a *Application) scrollPane(pane Focus, delta int) {
	if pane == FocusPreview {
		if a.surface != nil {
			a.surface.ScrollBy(delta)
		}
		return
	}
	a.editor.ScrollBy(delta)
}

func (a *Application) scrollFocusedTo(offset int) {
	if a.focus == FocusPreview {
		if a.surface != nil {
			a.surface.ScrollTo(offset)
		}
		return
	}
	a.editor.ScrollTo(offset)
}

func (a *Application) maxScrollFocused() int {
	if a.focus == FocusPreview {
		if a.surface == nil {
			return 0
		}
		return a.surface.MaxScroll()
	}
	return a.editor.MaxScroll()
}
