package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippetStripsAndTruncates(t *testing.T) {
	raw := "<p>The Fed held rates <b>steady</b>.\n\n   More text follows.</p>"
	got := Snippet(raw)
	if got != "The Fed held rates steady. More text follows." {
		t.Fatalf("unexpected snippet: %q", got)
	}

	// Long text cuts at the last sentence boundary inside the cap.
	long := strings.Repeat("Sentence one here. ", 40)
	got = Snippet(long)
	if len(got) > snippetMaxLen {
		t.Fatalf("snippet exceeds cap: %d", len(got))
	}
	if !strings.HasSuffix(got, ".") {
		t.Fatalf("expected sentence-boundary cut, got %q", got[len(got)-10:])
	}

	// No usable boundary: hard cut with ellipsis.
	noDots := strings.Repeat("x", 500)
	got = Snippet(noDots)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis on hard cut")
	}
}

func TestSnippetHardCutKeepsValidUTF8(t *testing.T) {
	// A 3-byte rune straddles the 400-byte cap; the cut must land on a
	// rune boundary, not mid-character.
	got := Snippet(strings.Repeat("日", 200))
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got[len(got)-12:])
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis on hard cut, got %q", got[len(got)-12:])
	}
	if len(got) > snippetMaxLen+len("…") {
		t.Fatalf("snippet exceeds cap: %d bytes", len(got))
	}
	for _, r := range strings.TrimSuffix(got, "…") {
		if r != '日' {
			t.Fatalf("unexpected rune %q in snippet", r)
		}
	}
}

func TestImageFinderPreferenceOrder(t *testing.T) {
	f := NewImageFinder()
	ctx := context.Background()

	e := Entry{
		MediaContent:    []string{"https://img.example/a.mp4", "https://img.example/b.jpg"},
		MediaThumbnails: []string{"https://img.example/thumb.png"},
		EnclosureImages: []string{"https://img.example/enc.png"},
		Summary:         `<img src="https://img.example/inline.png">`,
	}
	// media:content wins, but only with an image extension.
	if got := f.Find(ctx, e); got != "https://img.example/b.jpg" {
		t.Fatalf("expected media content image, got %q", got)
	}

	e.MediaContent = nil
	if got := f.Find(ctx, e); got != "https://img.example/thumb.png" {
		t.Fatalf("expected thumbnail next, got %q", got)
	}

	e.MediaThumbnails = nil
	if got := f.Find(ctx, e); got != "https://img.example/enc.png" {
		t.Fatalf("expected enclosure next, got %q", got)
	}

	e.EnclosureImages = nil
	if got := f.Find(ctx, e); got != "https://img.example/inline.png" {
		t.Fatalf("expected inline img next, got %q", got)
	}
}

func TestImageFinderOGFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:image" content="https://cdn.example/og.jpg"/>
		</head><body>story</body></html>`))
	}))
	defer srv.Close()

	f := NewImageFinder()
	got := f.Find(context.Background(), Entry{Link: srv.URL})
	if got != "https://cdn.example/og.jpg" {
		t.Fatalf("expected og:image fallback, got %q", got)
	}

	// Flipped attribute order is also scraped.
	flip := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<meta content="https://cdn.example/flip.jpg" property="og:image">`))
	}))
	defer flip.Close()
	if got := f.Find(context.Background(), Entry{Link: flip.URL}); got != "https://cdn.example/flip.jpg" {
		t.Fatalf("expected flipped og:image, got %q", got)
	}

	// Failure is silent: no image, no error, no panic.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer dead.Close()
	if got := f.Find(context.Background(), Entry{Link: dead.URL}); got != "" {
		t.Fatalf("expected empty result on fetch failure, got %q", got)
	}
}

func TestUpscaleImageURL(t *testing.T) {
	in := "https://i-invdn-com.investing.com/news/pic_108x81.jpg"
	if got := UpscaleImageURL(in); got != "https://i-invdn-com.investing.com/news/pic_800x533.jpg" {
		t.Fatalf("unexpected upscale: %q", got)
	}
	same := "https://other.example/pic_108x81.jpg"
	if got := UpscaleImageURL(same); got != same {
		t.Fatalf("unknown hosts must be untouched: %q", got)
	}
}
