package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/stac-coverage/internal/tui/formatting"
)

const jsonPageID = "json"

// jsonViewer owns the transient page that shows a row as raw JSON.
type jsonViewer struct {
	b         *Browser
	prevPage  string
	prevFocus tview.Primitive

	title string
	data  []byte
}

func newJSONViewer(b *Browser) *jsonViewer {
	return &jsonViewer{b: b}
}

// Show renders value and remembers where to return on Esc. It runs on the
// event loop, so the pages are changed directly.
func (v *jsonViewer) Show(title string, value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		v.b.showModal(fmt.Sprintf("Failed to render JSON: %v", err))
		return
	}
	v.prevFocus = v.b.app.GetFocus()
	v.prevPage, _ = v.b.pages.GetFrontPage()
	v.title = title
	v.data = data

	text := tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(true).
		SetWordWrap(false).
		SetText(string(data))
	text.SetBorder(true).SetTitle(title)
	text.SetInputCapture(v.handleInput)

	help := formatting.MakeHelpText("[yellow]Esc[white] close  |  [yellow]s[white] save JSON  |  [yellow]Ctrl+C[white] quit")
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(text, 0, 1, true).
		AddItem(help, 3, 0, false)

	v.b.pages.RemovePage(jsonPageID)
	v.b.pages.AddPage(jsonPageID, layout, true, true)
	v.b.app.SetFocus(text)
}

func (v *jsonViewer) Close() {
	v.b.pages.RemovePage(jsonPageID)
	if v.prevPage != "" {
		v.b.pages.SwitchToPage(v.prevPage)
	}
	if v.prevFocus != nil {
		v.b.app.SetFocus(v.prevFocus)
	}
	v.prevPage, v.prevFocus, v.data = "", nil, nil
}

// Save writes the JSON to the working directory.
func (v *jsonViewer) Save() {
	if len(v.data) == 0 {
		return
	}
	name := formatting.JSONFilename(v.title, time.Now())
	if err := os.WriteFile(name, v.data, 0o644); err != nil {
		v.b.showModal(fmt.Sprintf("Failed to save JSON: %v", err))
		return
	}
	v.b.showModal(fmt.Sprintf("JSON saved to %s", name))
}

func (v *jsonViewer) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		v.Close()
		return nil
	case tcell.KeyRune:
		if r := event.Rune(); r == 's' || r == 'S' {
			v.Save()
			return nil
		}
	}
	return event
}
