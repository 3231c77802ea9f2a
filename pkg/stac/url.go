package stac

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/purell"
)

const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagSortQuery |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// NormalizeURL canonicalizes an absolute URL so that equivalent spellings
// share one cache key and one visited-set entry.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("normalize %q: url is not absolute", raw)
	}
	if u.Scheme == "file" {
		// purell would fold the empty host of file:///x into file:/x
		u.Path = filepath.ToSlash(filepath.Clean(u.Path))
		u.Fragment = ""
		return u.String(), nil
	}
	return purell.NormalizeURL(u, normalizeFlags), nil
}

// Resolve resolves href against the URL of the document that contains it
// and normalizes the result.
func Resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("resolve: base %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("resolve: href %q: %w", href, err)
	}
	return NormalizeURL(b.ResolveReference(ref).String())
}

// Location turns a user-supplied root into an absolute URL. Bare paths are
// treated as local files.
func Location(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty catalog location")
	}
	if u, err := url.Parse(raw); err == nil && u.IsAbs() && len(u.Scheme) > 1 {
		return NormalizeURL(raw)
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("catalog location %q: %w", raw, err)
	}
	return NormalizeURL((&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String())
}
