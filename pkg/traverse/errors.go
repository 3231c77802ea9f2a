package traverse

import "fmt"

// CatalogTooLargeError reports a walk that discovered more distinct URLs
// than its node budget. The walk is abandoned rather than truncated.
type CatalogTooLargeError struct {
	Root  string
	Limit int
	Seen  int
}

func (e *CatalogTooLargeError) Error() string {
	return fmt.Sprintf("traverse: catalog %s exceeds node budget: discovered %d nodes, limit %d", e.Root, e.Seen, e.Limit)
}
