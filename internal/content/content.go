// Package content serves the public site pages. Pages are authored as
// Markdown, rendered with goldmark, and cached after first render. An
// operator-provided content directory overrides the embedded defaults.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	dErrors "ashram/pkg/domain-errors"
)

//go:embed pages/*.md
var defaultPages embed.FS

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<main>
{{.Body}}
</main>
</body>
</html>
`))

// Library renders and caches the site's Markdown pages.
type Library struct {
	dir string
	md  goldmark.Markdown

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewLibrary constructs a Library. dir overrides embedded pages when set.
func NewLibrary(dir string) *Library {
	return &Library{
		dir: dir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		cache: make(map[string][]byte),
	}
}

// Page renders the page for slug.
// Errors: CodeNotFound for unknown slugs.
func (l *Library) Page(slug, title string) ([]byte, error) {
	l.mu.RLock()
	if cached, ok := l.cache[slug]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	source, err := l.source(slug)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := l.md.Convert(source, &body); err != nil {
		return nil, fmt.Errorf("markdown render failed for %s: %w", slug, err)
	}

	var page bytes.Buffer
	err = pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("page template failed for %s: %w", slug, err)
	}

	rendered := page.Bytes()
	l.mu.Lock()
	l.cache[slug] = rendered
	l.mu.Unlock()
	return rendered, nil
}

// source reads the Markdown for slug, preferring the override directory.
func (l *Library) source(slug string) ([]byte, error) {
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, slug+".md"))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("content read failed for %s: %w", slug, err)
		}
	}

	data, err := defaultPages.ReadFile("pages/" + slug + ".md")
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "page not found")
		}
		return nil, fmt.Errorf("embedded content read failed for %s: %w", slug, err)
	}
	return data, nil
}
