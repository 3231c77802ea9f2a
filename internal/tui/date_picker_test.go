package tui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func acquired(id string, at time.Time) *index.Item {
	return &index.Item{ID: id, Collection: "optical", Start: at, End: at}
}

func TestDatePickerOpensOnLatestAcquisition(t *testing.T) {
	p := newDatePicker()
	p.SetItems([]*index.Item{
		acquired("a", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)),
		acquired("b", time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)),
		acquired("c", time.Date(2024, 4, 2, 1, 0, 0, 0, time.UTC)),
		{ID: "undated"},
	})

	assert.Equal(t, day(2024, 4, 2), p.cursor)
	assert.Equal(t, day(2024, 4, 1), p.month)
	assert.Equal(t, 2, p.acquisitions[day(2024, 3, 5)])
	assert.Len(t, p.acquisitions, 2)
	assert.Contains(t, p.monthLabel.GetText(true), "April 2024")

	// April 2024 starts on a Monday, so the 2nd sits in the Tuesday column.
	got, ok := p.dayAt(1, 2)
	require.True(t, ok)
	assert.Equal(t, day(2024, 4, 2), got)
	_, ok = p.dayAt(0, 2)
	assert.False(t, ok, "weekday header")
}

func TestDatePickerSelectsRange(t *testing.T) {
	p := newDatePicker()
	p.SetItems([]*index.Item{
		acquired("a", day(2024, 3, 5)),
		acquired("b", day(2024, 3, 7)),
		acquired("c", day(2024, 3, 20)),
	})
	_, _, ok := p.Range()
	assert.False(t, ok)

	p.selectDay(day(2024, 3, 8))
	start, end, ok := p.Range()
	require.True(t, ok)
	assert.Equal(t, day(2024, 3, 8), start)
	assert.Equal(t, day(2024, 3, 8), end, "a single pick is a one-day range")

	// the second pick may come before the first
	p.selectDay(day(2024, 3, 4))
	start, end, _ = p.Range()
	assert.Equal(t, day(2024, 3, 4), start)
	assert.Equal(t, day(2024, 3, 8), end)
	assert.Equal(t, 2, p.inRange())
	assert.Contains(t, p.info.GetText(true), "Range 2024-03-04..2024-03-08: 2")

	// a third pick starts over
	p.selectDay(day(2024, 3, 20))
	start, end, _ = p.Range()
	assert.Equal(t, day(2024, 3, 20), start)
	assert.Equal(t, day(2024, 3, 20), end)
}

func TestDatePickerKeys(t *testing.T) {
	p := newDatePicker()
	p.SetItems([]*index.Item{
		acquired("a", day(2024, 1, 31)),
		acquired("b", day(2024, 3, 5)),
	})
	key := func(k tcell.Key, mod tcell.ModMask) {
		p.onCalendarInput(tcell.NewEventKey(k, 0, mod))
	}

	assert.Equal(t, day(2024, 3, 5), p.cursor)
	key(tcell.KeyLeft, tcell.ModNone)
	assert.Equal(t, day(2024, 3, 4), p.cursor)
	key(tcell.KeyDown, tcell.ModNone)
	assert.Equal(t, day(2024, 3, 11), p.cursor)
	key(tcell.KeyPgUp, tcell.ModNone)
	assert.Equal(t, day(2024, 2, 11), p.cursor)
	key(tcell.KeyUp, tcell.ModCtrl)
	assert.Equal(t, day(2023, 2, 11), p.cursor)
	key(tcell.KeyDown, tcell.ModCtrl)

	key(tcell.KeyBacktab, tcell.ModNone)
	assert.Equal(t, day(2024, 1, 31), p.cursor)
	key(tcell.KeyTab, tcell.ModNone)
	assert.Equal(t, day(2024, 3, 5), p.cursor)
	key(tcell.KeyTab, tcell.ModNone)
	assert.Equal(t, day(2024, 3, 5), p.cursor, "no later acquisition")

	ev := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	assert.Same(t, ev, p.onCalendarInput(ev))
}

func TestDatePickerDone(t *testing.T) {
	p := newDatePicker()
	var calls int
	var gotConfirmed bool
	var gotStart, gotEnd time.Time
	p.SetDoneFunc(func(confirmed bool, start, end time.Time) {
		calls++
		gotConfirmed, gotStart, gotEnd = confirmed, start, end
	})

	p.SetRange(day(2024, 3, 9), day(2024, 3, 2))
	p.onCalendarInput(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	assert.Equal(t, 1, calls)
	assert.True(t, gotConfirmed)
	assert.Equal(t, day(2024, 3, 2), gotStart)
	assert.Equal(t, day(2024, 3, 9), gotEnd)

	p.onCalendarInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.Equal(t, 2, calls)
	assert.False(t, gotConfirmed)

	p.onCalendarInput(tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone))
	_, _, ok := p.Range()
	assert.False(t, ok)
	p.confirm()
	assert.True(t, gotConfirmed)
	assert.True(t, gotStart.IsZero())
}
