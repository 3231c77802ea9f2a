package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
)

// datePicker is a month calendar for choosing a range of acquisition days.
// Days on which at least one listed item was acquired are highlighted.
type datePicker struct {
	*tview.Flex
	monthLabel *tview.TextView
	calendar   *tview.Table
	info       *tview.TextView
	buttons    *tview.Form

	// acquisitions counts items per UTC day.
	acquisitions map[time.Time]int

	cursor time.Time
	month  time.Time

	start    time.Time
	end      time.Time
	hasStart bool
	hasEnd   bool

	done func(confirmed bool, start, end time.Time)
}

func newDatePicker() *datePicker {
	p := &datePicker{acquisitions: map[time.Time]int{}}
	p.monthLabel = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	p.calendar = tview.NewTable().
		SetSelectable(true, true).
		SetFixed(1, 0)
	p.info = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)

	p.buttons = tview.NewForm()
	p.buttons.AddButton("Apply", p.confirm)
	p.buttons.AddButton("Clear", p.clear)
	p.buttons.AddButton("Cancel", func() { p.finish(false) })
	p.buttons.SetButtonsAlign(tview.AlignCenter)

	p.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(p.monthLabel, 1, 0, false).
		AddItem(p.calendar, 0, 1, true).
		AddItem(p.info, 3, 0, false).
		AddItem(p.buttons, 3, 0, false)
	p.SetBorder(true).SetTitle("Acquisition Days")

	p.cursor = utcDay(time.Now())
	p.month = monthStart(p.cursor)

	p.calendar.SetInputCapture(p.onCalendarInput)
	p.calendar.SetSelectionChangedFunc(func(row, column int) {
		if day, ok := p.dayAt(row, column); ok {
			p.cursor = day
			p.updateInfo()
		}
	})
	p.calendar.SetSelectedFunc(func(row, column int) {
		if day, ok := p.dayAt(row, column); ok {
			p.selectDay(day)
		}
	})

	p.render()
	return p
}

func (p *datePicker) SetDoneFunc(fn func(confirmed bool, start, end time.Time)) {
	p.done = fn
}

// SetItems records the acquisition days of items. Without a chosen range
// the calendar opens on the latest of them.
func (p *datePicker) SetItems(items []*index.Item) {
	p.acquisitions = make(map[time.Time]int, len(items))
	var latest time.Time
	for _, it := range items {
		if it.Start.IsZero() {
			continue
		}
		day := utcDay(it.Start)
		p.acquisitions[day]++
		if day.After(latest) {
			latest = day
		}
	}
	if !p.hasStart && !latest.IsZero() {
		p.cursor = latest
		p.month = monthStart(latest)
	}
	p.render()
}

// SetRange preselects [start, end]; a zero start clears the selection.
func (p *datePicker) SetRange(start, end time.Time) {
	p.hasStart, p.hasEnd = false, false
	p.start, p.end = time.Time{}, time.Time{}
	if !start.IsZero() {
		p.start, p.hasStart = utcDay(start), true
		p.cursor = p.start
		if !end.IsZero() {
			p.end, p.hasEnd = utcDay(end), true
			if p.end.Before(p.start) {
				p.start, p.end = p.end, p.start
			}
		}
	}
	p.month = monthStart(p.cursor)
	p.render()
}

// Range returns the chosen days. A single chosen day is a one-day range.
func (p *datePicker) Range() (start, end time.Time, ok bool) {
	if !p.hasStart {
		return time.Time{}, time.Time{}, false
	}
	if !p.hasEnd {
		return p.start, p.start, true
	}
	return p.start, p.end, true
}

func (p *datePicker) onCalendarInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Modifiers()&tcell.ModCtrl != 0 {
		switch event.Key() {
		case tcell.KeyLeft:
			p.move(0, -1, 0)
			return nil
		case tcell.KeyRight:
			p.move(0, 1, 0)
			return nil
		case tcell.KeyUp:
			p.move(-1, 0, 0)
			return nil
		case tcell.KeyDown:
			p.move(1, 0, 0)
			return nil
		}
	}
	switch event.Key() {
	case tcell.KeyLeft:
		p.move(0, 0, -1)
	case tcell.KeyRight:
		p.move(0, 0, 1)
	case tcell.KeyUp:
		p.move(0, 0, -7)
	case tcell.KeyDown:
		p.move(0, 0, 7)
	case tcell.KeyPgUp:
		p.move(0, -1, 0)
	case tcell.KeyPgDn:
		p.move(0, 1, 0)
	case tcell.KeyTab:
		p.jumpToAcquisition(1)
	case tcell.KeyBacktab:
		p.jumpToAcquisition(-1)
	case tcell.KeyEscape:
		p.finish(false)
	case tcell.KeyRune:
		switch event.Rune() {
		case 'a':
			p.confirm()
		case 'c':
			p.clear()
		default:
			return event
		}
	default:
		return event
	}
	return nil
}

func (p *datePicker) move(years, months, days int) {
	p.cursor = utcDay(p.cursor.AddDate(years, months, days))
	p.month = monthStart(p.cursor)
	p.render()
}

// jumpToAcquisition moves the cursor to the next (dir > 0) or previous day
// with acquisitions.
func (p *datePicker) jumpToAcquisition(dir int) {
	var best time.Time
	for day := range p.acquisitions {
		if dir > 0 && day.After(p.cursor) && (best.IsZero() || day.Before(best)) {
			best = day
		}
		if dir < 0 && day.Before(p.cursor) && (best.IsZero() || day.After(best)) {
			best = day
		}
	}
	if best.IsZero() {
		return
	}
	p.cursor = best
	p.month = monthStart(best)
	p.render()
}

// selectDay sets the start on the first pick and the end on the second.
// A third pick starts over.
func (p *datePicker) selectDay(day time.Time) {
	day = utcDay(day)
	if !p.hasStart || p.hasEnd {
		p.start, p.hasStart = day, true
		p.end, p.hasEnd = time.Time{}, false
	} else {
		if day.Before(p.start) {
			p.start, p.end = day, p.start
		} else {
			p.end = day
		}
		p.hasEnd = true
	}
	p.cursor = day
	p.month = monthStart(day)
	p.render()
}

func (p *datePicker) confirm() { p.finish(true) }

func (p *datePicker) clear() {
	p.SetRange(time.Time{}, time.Time{})
}

func (p *datePicker) finish(confirmed bool) {
	if p.done == nil {
		return
	}
	start, end, _ := p.Range()
	p.done(confirmed, start, end)
}

// inRange counts the acquisitions between the chosen days.
func (p *datePicker) inRange() int {
	start, end, ok := p.Range()
	if !ok {
		return 0
	}
	n := 0
	for day, c := range p.acquisitions {
		if !day.Before(start) && !day.After(end) {
			n += c
		}
	}
	return n
}

func (p *datePicker) updateInfo() {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s:[white] %d acquisitions", p.cursor.Format(time.DateOnly), p.acquisitions[p.cursor])
	if start, end, ok := p.Range(); ok {
		fmt.Fprintf(&b, "  [yellow]Range %s..%s:[white] %d", start.Format(time.DateOnly), end.Format(time.DateOnly), p.inRange())
	}
	b.WriteString("\n")
	switch {
	case !p.hasStart:
		b.WriteString("[gray]Enter picks the first day. Tab/Shift+Tab jump between acquisition days.[-]")
	case !p.hasEnd:
		b.WriteString("[gray]Enter picks the last day, or a applies this single day.[-]")
	default:
		b.WriteString("[gray]a applies, c clears, Esc cancels.[-]")
	}
	p.info.SetText(b.String())
}

func (p *datePicker) dayAt(row, column int) (time.Time, bool) {
	cell := p.calendar.GetCell(row, column)
	if cell == nil {
		return time.Time{}, false
	}
	day, ok := cell.GetReference().(time.Time)
	return day, ok
}

func (p *datePicker) render() {
	p.calendar.Clear()
	for col, label := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		p.calendar.SetCell(0, col, tview.NewTableCell("[::b]"+label).
			SetAlign(tview.AlignCenter).
			SetSelectable(false))
	}
	p.monthLabel.SetText(fmt.Sprintf("%s  [gray](PgUp/PgDn month, Ctrl+↑/↓ year)[-]", p.month.Format("January 2006")))

	start, end, chosen := p.Range()
	row, col := 1, int(p.month.Weekday())
	selRow, selCol := 0, 0
	for d := 1; d <= daysIn(p.month); d++ {
		day := time.Date(p.month.Year(), p.month.Month(), d, 0, 0, 0, 0, time.UTC)
		cell := tview.NewTableCell(fmt.Sprintf("%2d", d)).
			SetAlign(tview.AlignCenter).
			SetReference(day).
			SetTextColor(tcell.ColorWhite).
			SetSelectedStyle(tcell.StyleDefault.Background(tcell.ColorLightCyan).Foreground(tcell.ColorBlack))
		if p.acquisitions[day] > 0 {
			cell.SetTextColor(tcell.ColorGreen).SetAttributes(tcell.AttrBold)
		}
		switch {
		case chosen && (day.Equal(start) || day.Equal(end)):
			cell.SetTextColor(tcell.ColorBlack).SetBackgroundColor(tcell.ColorYellow)
		case chosen && day.After(start) && day.Before(end):
			cell.SetTextColor(tcell.ColorBlack).SetBackgroundColor(tcell.ColorDarkGreen)
		}
		p.calendar.SetCell(row, col, cell)
		if day.Equal(p.cursor) {
			selRow, selCol = row, col
		}
		col++
		if col > 6 {
			col = 0
			row++
		}
	}
	if selRow > 0 {
		p.calendar.Select(selRow, selCol)
	}
	p.updateInfo()
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
