// Package geocode resolves and caches district coordinates. The cache is a
// CSV table rewritten after every successful insert, so a crash mid-build
// loses at most the in-flight entry; raw service responses are additionally
// memoized in SQLite keyed by the exact query string.
package geocode

import "strings"

// Key normalizes a district name into a cache key: trimmed, case-folded,
// with internal whitespace collapsed. Shared by the build and lookup paths
// so scrape-sourced and cache-sourced spellings reconcile.
func Key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
