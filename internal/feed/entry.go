// Package feed implements the deduplicated diff core for content sources:
// given a fresh snapshot of entries, decide which are new relative to the
// durable ledger, cap the burst, and mark everything observed as seen.
package feed

import (
	"crypto/md5"
	"encoding/hex"
)

// Source is one configured content feed.
type Source struct {
	Name        string
	URL         string
	Color       int
	Icon        string
	MaxPerCycle int
}

// Entry is one parsed feed item. Only Identity-relevant fields plus
// presentation material; parsing itself happens in the fetcher.
type Entry struct {
	ID      string
	Title   string
	Link    string
	Summary string

	// Image candidates from structured fields, kept separate because they
	// are tried in a fixed preference order during enrichment.
	MediaContent    []string
	MediaThumbnails []string
	EnclosureImages []string
}

// Identity derives the stable article identity: canonical id, else link,
// else title, hashed to a fixed-width hex string. md5 keeps ledgers
// written by earlier deployments valid.
func Identity(e Entry) string {
	raw := e.ID
	if raw == "" {
		raw = e.Link
	}
	if raw == "" {
		raw = e.Title
	}
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
