package app

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/mdview/internal/layout"
	"github.com/dshills/mdview/internal/renderer/backend"
	"github.com/dshills/mdview/internal/renderer/core"
)

// gutterWidth is the width of the source pane's line number column.
const gutterWidth = 5

var (
	styleText      = core.DefaultStyle()
	styleGutter    = core.DefaultStyle().WithForeground(core.ColorFromIndex(8))
	styleSeparator = core.DefaultStyle().With(core.AttrDim)
	styleHeading   = core.DefaultStyle().WithForeground(core.ColorFromIndex(4)).With(core.AttrBold)
	styleCode      = core.DefaultStyle().WithForeground(core.ColorFromIndex(2))
	styleQuote     = core.DefaultStyle().With(core.AttrItalic | core.AttrDim)
	styleRule      = core.DefaultStyle().With(core.AttrDim)
	stylePageBreak = core.DefaultStyle().With(core.AttrReverse | core.AttrDim)
	styleStatus    = core.DefaultStyle().With(core.AttrReverse)
	styleError     = core.DefaultStyle().WithForeground(core.ColorFromIndex(1)).With(core.AttrReverse | core.AttrBold)
)

// separatorX returns the column of the pane separator.
func (a *Application) separatorX() int {
	return a.width / 2
}

// paneSizes returns the source text width, the preview width and the
// height shared by both panes. The last terminal row is the status line.
func (a *Application) paneSizes() (editorWidth, previewWidth, height int) {
	sep := a.separatorX()
	editorWidth = max(sep-gutterWidth, 1)
	previewWidth = max(a.width-sep-1, 1)
	height = max(a.height-1, 1)
	return editorWidth, previewWidth, height
}

// invalidate schedules one redraw on the loop.
func (a *Application) invalidate() {
	if a.redrawPosted || !a.started {
		return
	}
	a.redrawPosted = true
	a.loop.Post(func() {
		a.redrawPosted = false
		a.draw()
	})
}

// draw paints the whole screen.
func (a *Application) draw() {
	t := StartTimer()

	a.backend.Clear()
	a.drawSource()
	a.drawSeparator()
	a.drawPreview()
	a.drawStatus()
	a.backend.Show()

	a.metrics.RecordFrame(t.Elapsed())
}

func (a *Application) drawSource() {
	ew, _, _ := a.paneSizes()
	for y, row := range a.editor.Visible() {
		if row.First {
			backend.DrawString(a.backend, 0, y, fmt.Sprintf("%4d ", row.Line+1), styleGutter, gutterWidth)
		}
		backend.DrawString(a.backend, gutterWidth, y, row.Text, styleText, ew)
	}
}

func (a *Application) drawSeparator() {
	_, _, ph := a.paneSizes()
	x := a.separatorX()
	a.backend.Fill(core.RectFromSize(0, x, ph, 1), core.NewStyledCell('│', styleSeparator))
}

func (a *Application) drawPreview() {
	_, pw, _ := a.paneSizes()
	x := a.separatorX() + 1

	if a.surface == nil {
		backend.DrawString(a.backend, x+1, 0, "rendering…", styleRule, pw-1)
		return
	}

	for y, row := range a.surface.Visible() {
		style := rowStyle(row)
		if row.Kind == layout.RowPageBreak {
			a.backend.Fill(core.RectFromSize(y, x, 1, pw), core.NewStyledCell(' ', style))
		}
		backend.DrawString(a.backend, x, y, row.Text, style, pw)
	}
}

func rowStyle(row layout.Row) core.Style {
	switch row.Kind {
	case layout.RowHeading:
		if row.Level > 2 {
			return styleHeading.With(core.AttrUnderline)
		}
		return styleHeading
	case layout.RowCode:
		return styleCode
	case layout.RowQuote:
		return styleQuote
	case layout.RowRule:
		return styleRule
	case layout.RowPageBreak:
		return stylePageBreak
	default:
		return styleText
	}
}

// statusText returns the left part of the status line.
func (a *Application) statusText() string {
	name := a.doc.Name
	if a.surface != nil {
		if title := a.surface.Meta().Title; title != "" {
			name = fmt.Sprintf("%s (%s)", title, a.doc.Name)
		}
	}

	text := fmt.Sprintf(" %s │ %s │ focus %s │ src %d/%d",
		name, a.session.Mode(), a.focus, a.editor.ScrollTop(), a.editor.MaxScroll())
	if a.surface != nil {
		text += fmt.Sprintf(" │ preview %d/%d", a.surface.ScrollTop(), a.surface.MaxScroll())
	}
	return text
}

func (a *Application) drawStatus() {
	y := a.height - 1
	if y < 0 {
		return
	}
	a.backend.Fill(core.RectFromSize(y, 0, 1, a.width), core.NewStyledCell(' ', styleStatus))
	left := backend.DrawString(a.backend, 0, y, a.statusText(), styleStatus, a.width)

	right, style := fmt.Sprintf(" renders %d ", a.metrics.Snapshot().RenderCount), styleStatus
	if a.status != "" {
		right, style = " "+a.status+" ", styleError
	}
	room := a.width - left - 1
	if room <= 0 {
		return
	}
	w := min(runewidth.StringWidth(right), room)
	backend.DrawString(a.backend, a.width-w, y, right, style, w)
}
