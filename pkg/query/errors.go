package query

import (
	"errors"

	"github.com/robert-malhotra/stac-coverage/pkg/index"
)

var (
	// ErrNoIndex is returned by queries issued before the first successful
	// refresh.
	ErrNoIndex = errors.New("query: no catalog index loaded")

	// ErrInvalidWindow is returned for a window whose start is after its
	// end, including a negative tolerance.
	ErrInvalidWindow = index.ErrInvalidWindow

	// ErrInvalidDate is returned when a date argument cannot be parsed.
	ErrInvalidDate = errors.New("query: invalid date")
)
