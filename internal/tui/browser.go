// Package tui is an interactive viewer for query results.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robert-malhotra/stac-coverage/internal/tui/formatting"
	"github.com/robert-malhotra/stac-coverage/pkg/cql2"
	"github.com/robert-malhotra/stac-coverage/pkg/index"
	"github.com/robert-malhotra/stac-coverage/pkg/query"
)

const (
	pageItems  = "items"
	pageDetail = "detail"
	pageFilter = "filter"
	pageDates  = "dates"
	pageModal  = "modal"
)

const itemsHelp = "[yellow]↑/↓[white] select  [yellow]Enter[white] details  [yellow]f[white] filter  [yellow]d[white] dates  [yellow]j[white] raw JSON  [yellow]q[white] quit"

// Row is one result entry.
type Row struct {
	Item *index.Item
	// Coverage is the share of the query area the item covers, for rows
	// that come from a coverage query.
	Coverage *float64
}

// RowsFromItems wraps plain items.
func RowsFromItems(items []*index.Item) []Row {
	rows := make([]Row, len(items))
	for i, it := range items {
		rows[i] = Row{Item: it}
	}
	return rows
}

// RowsFromCoverage keeps the coverage ratio of every match.
func RowsFromCoverage(r *query.CoverageResult) []Row {
	rows := make([]Row, len(r.Matches))
	for i, m := range r.Matches {
		ratio := m.Ratio
		rows[i] = Row{Item: m.Item, Coverage: &ratio}
	}
	return rows
}

// Browser shows a fixed result set: a list with a summary pane, a detail
// page per item, and a CQL2 filter and acquisition-day range that narrow
// the list in place.
type Browser struct {
	app     *tview.Application
	pages   *tview.Pages
	list    *tview.List
	summary *tview.TextView
	help    *tview.TextView
	detail  *tview.TextView
	filter  *tview.InputField
	json    *jsonViewer
	dates   *datePicker

	label string
	all   []Row
	shown []Row
	where *cql2.Filter
	days  *index.Window

	stopOnce sync.Once
}

func configureStyles() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorDarkSlateGray
	tview.Styles.BorderColor = tcell.ColorWhite
	tview.Styles.TitleColor = tcell.ColorWhite
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorYellow
	tview.Styles.TertiaryTextColor = tcell.ColorGreen
}

// New builds the browser. label describes the query that produced rows.
func New(label string, rows []Row) *Browser {
	configureStyles()
	b := &Browser{
		app:   tview.NewApplication(),
		pages: tview.NewPages(),
		label: label,
		all:   rows,
	}
	b.json = newJSONViewer(b)
	b.setupItemsPage()
	b.setupDetailPage()
	b.setupFilterPage()
	b.setupDatesPage()
	b.show(rows)
	b.app.SetInputCapture(b.onInputCapture)
	return b
}

// Run blocks until the user quits or ctx is done.
func (b *Browser) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	return b.app.SetRoot(b.pages, true).SetFocus(b.list).Run()
}

func (b *Browser) Stop() {
	b.stopOnce.Do(b.app.Stop)
}

// Shown returns the rows currently listed.
func (b *Browser) Shown() []Row { return b.shown }

func (b *Browser) setupItemsPage() {
	b.list = tview.NewList().ShowSecondaryText(false).SetWrapAround(false)
	b.list.SetBorder(true)

	b.summary = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)
	b.summary.SetBorder(true).SetTitle("Item Summary")

	b.list.SetChangedFunc(func(i int, _, _ string, _ rune) {
		if i < 0 || i >= len(b.shown) {
			b.summary.Clear()
			return
		}
		r := b.shown[i]
		b.summary.SetText(formatting.FormatItemSummary(r.Item, r.Coverage))
		b.summary.ScrollToBeginning()
	})
	b.list.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		if i < len(b.shown) {
			b.showDetail(b.shown[i])
		}
	})

	content := tview.NewFlex().
		AddItem(b.list, 0, 1, true).
		AddItem(b.summary, 0, 1, false)
	b.help = formatting.MakeHelpText(itemsHelp)
	page := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(content, 0, 1, true).
		AddItem(b.help, 3, 0, false)
	b.pages.AddPage(pageItems, page, true, true)
}

func (b *Browser) setupDetailPage() {
	b.detail = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true).SetScrollable(true)
	b.detail.SetBorder(true).SetTitle("Item Detail")
	b.detail.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			b.pages.SwitchToPage(pageItems)
			b.app.SetFocus(b.list)
			return nil
		}
		return event
	})
	help := formatting.MakeHelpText("[yellow]↑/↓[white] scroll  [yellow]j[white] raw JSON  [yellow]Esc[white] back  [yellow]Ctrl+C[white] quit")
	page := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.detail, 0, 1, true).
		AddItem(help, 3, 0, false)
	b.pages.AddPage(pageDetail, page, true, false)
}

func (b *Browser) setupFilterPage() {
	b.filter = tview.NewInputField().
		SetLabel("CQL2 filter: ").
		SetFieldWidth(0)
	b.filter.SetBorder(true).SetTitle("Filter (empty clears)")
	b.filter.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			if err := b.ApplyFilter(b.filter.GetText()); err != nil {
				b.showModal(err.Error())
				return
			}
		}
		b.pages.HidePage(pageFilter)
		b.app.SetFocus(b.list)
	})

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(b.filter, 3, 0, true).
			AddItem(nil, 0, 1, false), 0, 3, true).
		AddItem(nil, 0, 1, false)
	b.pages.AddPage(pageFilter, modal, true, false)
}

func (b *Browser) setupDatesPage() {
	b.dates = newDatePicker()
	b.dates.SetDoneFunc(func(confirmed bool, start, end time.Time) {
		if confirmed {
			b.ApplyDateRange(start, end)
		}
		b.pages.HidePage(pageDates)
		b.app.SetFocus(b.list)
	})
	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(b.dates, 18, 0, true).
			AddItem(nil, 0, 1, false), 46, 0, true).
		AddItem(nil, 0, 1, false)
	b.pages.AddPage(pageDates, modal, true, false)
}

func (b *Browser) openDates() {
	items := make([]*index.Item, len(b.all))
	for i, r := range b.all {
		items[i] = r.Item
	}
	b.dates.SetItems(items)
	if b.days != nil {
		b.dates.SetRange(b.days.Start, b.days.End)
	} else {
		b.dates.SetRange(time.Time{}, time.Time{})
	}
	b.pages.ShowPage(pageDates)
	b.app.SetFocus(b.dates.calendar)
}

// ApplyDateRange narrows the list to items acquired during the UTC days
// from start to end, both included. A zero start removes the range.
func (b *Browser) ApplyDateRange(start, end time.Time) {
	if start.IsZero() {
		b.days = nil
	} else {
		if end.IsZero() || end.Before(start) {
			end = start
		}
		first := index.DayWindow(start, 0)
		last := index.DayWindow(end, 0)
		b.days = &index.Window{Start: first.Start, End: last.End}
	}
	b.refilter()
}

// ApplyFilter narrows the list to rows whose properties match expr. An
// empty expression shows every row again.
func (b *Browser) ApplyFilter(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		b.where = nil
		b.refilter()
		return nil
	}
	f, err := cql2.Compile(expr)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	b.where = f
	b.refilter()
	return nil
}

func (b *Browser) refilter() {
	if b.where == nil && b.days == nil {
		b.show(b.all)
		return
	}
	rows := make([]Row, 0, len(b.all))
	for _, r := range b.all {
		if b.where != nil && !b.where.Match(r.Item.Properties) {
			continue
		}
		if b.days != nil && (r.Item.Start.IsZero() || !r.Item.Overlaps(*b.days)) {
			continue
		}
		rows = append(rows, r)
	}
	b.show(rows)
}

func (b *Browser) show(rows []Row) {
	b.shown = rows
	b.list.Clear()
	b.summary.Clear()
	for _, r := range rows {
		b.list.AddItem(formatting.ListLabel(r.Item, r.Coverage), "", 0, nil)
	}
	b.list.SetTitle(b.title())
	if len(rows) > 0 {
		b.list.SetCurrentItem(0)
		b.summary.SetText(formatting.FormatItemSummary(rows[0].Item, rows[0].Coverage))
	}
}

func (b *Browser) title() string {
	title := fmt.Sprintf("Items (%d)", len(b.shown))
	if b.label != "" {
		title += " | " + b.label
	}
	if b.where != nil {
		title += " where " + b.where.String()
	}
	if b.days != nil {
		title += fmt.Sprintf(" on %s..%s", b.days.Start.Format(time.DateOnly), b.days.End.Format(time.DateOnly))
	}
	return title
}

func (b *Browser) showDetail(r Row) {
	b.detail.SetTitle(r.Item.Key())
	b.detail.SetText(formatting.FormatItemDetail(r.Item))
	b.detail.ScrollToBeginning()
	b.pages.SwitchToPage(pageDetail)
	b.app.SetFocus(b.detail)
}

func (b *Browser) selected() (Row, bool) {
	i := b.list.GetCurrentItem()
	if i < 0 || i >= len(b.shown) {
		return Row{}, false
	}
	return b.shown[i], true
}

func (b *Browser) onInputCapture(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		b.Stop()
		return nil
	}
	if event.Key() != tcell.KeyRune || b.app.GetFocus() == b.filter {
		return event
	}
	front, _ := b.pages.GetFrontPage()
	if front == pageModal || front == pageDates || front == jsonPageID {
		return event
	}
	switch event.Rune() {
	case 'q':
		if front == pageItems {
			b.Stop()
			return nil
		}
	case 'f':
		if front == pageItems {
			b.filter.SetText("")
			if b.where != nil {
				b.filter.SetText(b.where.String())
			}
			b.pages.ShowPage(pageFilter)
			b.app.SetFocus(b.filter)
			return nil
		}
	case 'd':
		if front == pageItems {
			b.openDates()
			return nil
		}
	case 'j':
		if r, ok := b.selected(); ok {
			b.json.Show(r.Item.Key(), rowView(r))
			return nil
		}
	}
	return event
}

func rowView(r Row) any {
	v := query.NewItemView(r.Item)
	if r.Coverage == nil {
		return v
	}
	return query.MatchView{ItemView: v, Ratio: *r.Coverage}
}

func (b *Browser) showModal(message string) {
	prev := b.app.GetFocus()
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			b.pages.RemovePage(pageModal)
			if prev != nil {
				b.app.SetFocus(prev)
			}
		})
	b.pages.RemovePage(pageModal)
	b.pages.AddPage(pageModal, modal, false, true)
	b.app.SetFocus(modal)
}
