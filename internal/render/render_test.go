package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/debemdeboas/archive-editor/internal/cache"
	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/richtext"
)

func TestHighlightMarkup(t *testing.T) {
	markup := `<p>Hello <b>world</b></p><img src="a.png" style="width: 300px; height: auto;"/>`

	out, err := HighlightMarkup(markup, "github")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, `<div class="markup-source">`) || !strings.HasSuffix(out, `</div>`) {
		t.Errorf("Expected the source wrapper, got %q", out)
	}
	if !strings.Contains(out, `class="chroma"`) {
		t.Errorf("Expected chroma classes, got %q", out)
	}
	if strings.Contains(out, "<b>world</b>") {
		t.Error("Expected the markup to be escaped, not rendered")
	}
}

func TestHighlightMarkupCached(t *testing.T) {
	cache.ClearHighlightedSource()

	first := HighlightMarkupCached("<p>a</p>", "hash-a", "monokai")
	cached, found := cache.GetHighlightedSource("hash-a", "monokai")
	if !found || cached != first {
		t.Fatal("Expected the highlighted markup to be cached")
	}

	// A cache hit wins even if the markup passed in differs.
	if got := HighlightMarkupCached("<p>other</p>", "hash-a", "monokai"); got != first {
		t.Error("Expected the cached entry to be returned")
	}

	if got := HighlightMarkupCached("<p>a</p>", "", "monokai"); got == "" {
		t.Error("Expected output without a hash")
	}
	if _, found := cache.GetHighlightedSource("", "monokai"); found {
		t.Error("Expected no cache entry for an empty hash")
	}
}

func TestHighlightMarkupCachedConcurrency(t *testing.T) {
	cache.ClearHighlightedSource()

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = HighlightMarkupCached("<p>same</p>", "hash-same", "github")
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Errorf("Result %d differs from the first", i)
		}
	}
}

func TestMarkdownToMarkup(t *testing.T) {
	md := []byte("%%%\ntitle = \"Imported\"\n%%%\n# Heading\n\nHello **bold** and *it*\n\n- one\n- two\n")

	for _, flavor := range []string{config.MarkdownMmark, config.MarkdownClassic} {
		t.Run(flavor, func(t *testing.T) {
			markup, info, err := MarkdownToMarkup(md, flavor)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if info == nil || info.Title != "Imported" {
				t.Errorf("Expected front matter title, got %+v", info)
			}

			got := string(markup)
			for _, want := range []string{
				"<p>Hello <b>bold</b> and <i>it</i></p>",
				"<ul><li>one</li><li>two</li></ul>",
				"Heading</h1>",
			} {
				if !strings.Contains(got, want) {
					t.Errorf("Expected %q in %q", want, got)
				}
			}
			if strings.Contains(got, "%%%") {
				t.Errorf("Expected front matter to be stripped, got %q", got)
			}

			// The result is already canonical editor markup.
			s, err := richtext.Parse(got)
			if err != nil {
				t.Fatal(err)
			}
			if again := richtext.Serialize(s); again != got {
				t.Errorf("Expected a fixed point, got %q then %q", got, again)
			}
		})
	}
}

func TestMarkdownToMarkupErrors(t *testing.T) {
	if _, _, err := MarkdownToMarkup([]byte("# x"), "pandoc"); err == nil {
		t.Error("Expected an error for an unknown flavor")
	}
	if _, _, err := MarkdownToMarkup([]byte("%%%\ntitle = \"open\n%%%\n"), config.MarkdownClassic); err == nil {
		t.Error("Expected an error for broken front matter")
	}
}
