// Package stac decodes SpatioTemporal Asset Catalog documents into the
// normalized Node model used by the traversal engine.
//
// Documents are decoded by their declared "type": "Catalog", "Collection"
// and "Feature" (an Item) are dispatched to the matching
// github.com/planetlabs/go-stac type, then flattened into a Node whose
// links are resolved to absolute URLs against the document's own URL.
//
//	node, err := stac.Decode("https://example.com/catalog.json", body)
//	if err != nil {
//	    var malformed *stac.MalformedNodeError
//	    if errors.As(err, &malformed) {
//	        // skip and count
//	    }
//	}
//	for _, link := range node.LinksOf(stac.RelChild, stac.RelItem) {
//	    fmt.Println(link.URL)
//	}
package stac
