package feed

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	logx "finbeat/pkg/logx"
)

// Fetcher wraps the RSS/Atom parser. A fetch or parse failure is logged
// and yields zero entries; it never fails the poll cycle.
type Fetcher struct {
	parser *gofeed.Parser
	log    logx.Logger
}

func NewFetcher(log logx.Logger) *Fetcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: 15 * time.Second}
	p.UserAgent = "finbeat/1.0 (+rss)"
	return &Fetcher{parser: p, log: log}
}

// Fetch returns the source's current entries in feed order.
func (f *Fetcher) Fetch(ctx context.Context, src Source) []Entry {
	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		f.log.Warn("feed fetch failed", logx.String("source", src.Name), logx.Err(err))
		return nil
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		e := Entry{
			ID:      item.GUID,
			Title:   item.Title,
			Link:    item.Link,
			Summary: item.Description,
		}
		if e.Summary == "" {
			e.Summary = item.Content
		}
		collectMedia(&e, item)
		entries = append(entries, e)
	}
	return entries
}

// collectMedia pulls structured image candidates: media:content and
// media:thumbnail extensions, then image-typed enclosures, then the
// item-level image.
func collectMedia(e *Entry, item *gofeed.Item) {
	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["content"] {
			if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
				e.MediaContent = append(e.MediaContent, url)
			}
		}
		for _, ext := range media["thumbnail"] {
			if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
				e.MediaThumbnails = append(e.MediaThumbnails, url)
			}
		}
	}
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			e.EnclosureImages = append(e.EnclosureImages, enc.URL)
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		e.EnclosureImages = append(e.EnclosureImages, item.Image.URL)
	}
}
