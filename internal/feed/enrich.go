package feed

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Presentation enrichment on top of the diff decision. Nothing here
// affects identity or dedup, and nothing here may block emission:
// every function degrades to a zero value on failure.

const (
	snippetMaxLen   = 400
	snippetMinCut   = 100
	ogFetchMaxBytes = 50_000
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	inlineImgRe  = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
	ogImageRe    = regexp.MustCompile(`<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`)
	// Some sites flip the attribute order.
	ogImageFlipRe = regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+property=["']og:image["']`)
	thumbSizeRe   = regexp.MustCompile(`_\d+x\d+\.`)
)

// Snippet reduces entry HTML to a clean text excerpt, cut at a sentence
// boundary within the length cap.
func Snippet(raw string) string {
	s := htmlTagRe.ReplaceAllString(raw, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) <= snippetMaxLen {
		return s
	}
	cut := strings.LastIndex(s[:snippetMaxLen], ". ")
	if cut > snippetMinCut {
		return s[:cut+1]
	}
	// Hard cut: back off to a rune boundary so a multi-byte character is
	// never split.
	end := snippetMaxLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + "…"
}

// UpscaleImageURL swaps tiny thumbnails for larger versions where possible.
func UpscaleImageURL(url string) string {
	// Investing.com: 108x81 → 800x533
	if strings.Contains(url, "i-invdn-com.investing.com") {
		return thumbSizeRe.ReplaceAllString(url, "_800x533.")
	}
	return url
}

// ImageFinder discovers a best-effort image URL for an entry.
type ImageFinder struct {
	client *http.Client
}

func NewImageFinder() *ImageFinder {
	return &ImageFinder{client: &http.Client{Timeout: 5 * time.Second}}
}

// Find tries, in order: media:content (image-suffixed URLs only),
// media:thumbnail, image enclosures, an inline <img> in the summary, and
// finally a fetch of the article page for its og:image tag.
// Returns "" when nothing is found.
func (f *ImageFinder) Find(ctx context.Context, e Entry) string {
	for _, url := range e.MediaContent {
		if hasImageExt(url) {
			return UpscaleImageURL(url)
		}
	}
	if len(e.MediaThumbnails) > 0 {
		return UpscaleImageURL(e.MediaThumbnails[0])
	}
	if len(e.EnclosureImages) > 0 {
		return UpscaleImageURL(e.EnclosureImages[0])
	}
	if m := inlineImgRe.FindStringSubmatch(e.Summary); m != nil {
		return UpscaleImageURL(m[1])
	}
	if og := f.fetchOGImage(ctx, e.Link); og != "" {
		return UpscaleImageURL(og)
	}
	return ""
}

func hasImageExt(url string) bool {
	l := strings.ToLower(url)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".gif"} {
		if strings.Contains(l, ext) {
			return true
		}
	}
	return false
}

// fetchOGImage is the last resort: pull the article page and scrape the
// og:image meta tag from its head.
func (f *ImageFinder) fetchOGImage(ctx context.Context, link string) string {
	if link == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, ogFetchMaxBytes))
	if err != nil {
		return ""
	}
	if m := ogImageRe.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	if m := ogImageFlipRe.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}
