package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// Renderer parses the HTML templates and hands them out as templ
// components, so handlers render every response the same way:
//
//	c, err := renderer.Page("form", data)
//	renderer.RenderHTTP(w, r, http.StatusOK, c)
//
// Templates are organized as:
//   - layouts/app.html - the base layout, defines "app"
//   - partials/*.html - fragments shared by pages and returned to htmx
//   - pages/*.html - one screen each, defines "title" and "content"
type Renderer struct {
	fsys   fs.FS
	reload bool
	logger *slog.Logger

	mu       sync.RWMutex
	pages    map[string]*template.Template
	partials *template.Template
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	FS     fs.FS
	Logger *slog.Logger

	// Reload re-parses templates on every render. Use with os.DirFS in
	// development.
	Reload bool
}

// NewRenderer parses all templates in cfg.FS.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{
		fsys:   cfg.FS,
		reload: cfg.Reload,
		logger: cfg.Logger,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) parseBase() (*template.Template, error) {
	base := template.New("app").Funcs(TemplateFuncs())
	for _, pattern := range []string{"layouts/*.html", "partials/*.html"} {
		matches, err := fs.Glob(r.fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			continue
		}
		if base, err = base.ParseFS(r.fsys, matches...); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", pattern, err)
		}
	}
	if base.Lookup("app") == nil || base.Lookup("app").Tree == nil {
		return nil, fmt.Errorf("layout %q not defined", "app")
	}
	return base, nil
}

func (r *Renderer) load() error {
	pageFiles, err := fs.Glob(r.fsys, "pages/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		// Each page gets its own set so "content" and "title" never clash.
		base, err := r.parseBase()
		if err != nil {
			return err
		}
		pageTmpl, err := base.ParseFS(r.fsys, file)
		if err != nil {
			return fmt.Errorf("failed to parse page %s: %w", file, err)
		}
		name := strings.TrimSuffix(path.Base(file), path.Ext(file))
		pages[name] = pageTmpl
	}

	partials, err := r.parseBase()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.pages = pages
	r.partials = partials
	r.mu.Unlock()

	r.logger.Debug("templates loaded", "pages", len(pages))
	return nil
}

func (r *Renderer) reloadIfNeeded() error {
	if !r.reload {
		return nil
	}
	if err := r.load(); err != nil {
		return fmt.Errorf("template reload failed: %w", err)
	}
	return nil
}

// Page returns the full document for a page: the layout wrapping the
// page's content.
func (r *Renderer) Page(name string, data any) (templ.Component, error) {
	return r.Fragment(name, "app", data)
}

// Fragment returns one named block of a page, e.g. its "content" for an
// htmx swap.
func (r *Renderer) Fragment(page, block string, data any) (templ.Component, error) {
	if err := r.reloadIfNeeded(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	tmpl, ok := r.pages[page]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("page %q not found", page)
	}

	t := tmpl.Lookup(block)
	if t == nil {
		return nil, fmt.Errorf("block %q not defined by page %q", block, page)
	}
	return templ.FromGoHTML(t, data), nil
}

// Partial returns a template defined under partials/.
func (r *Renderer) Partial(name string, data any) (templ.Component, error) {
	if err := r.reloadIfNeeded(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	t := r.partials.Lookup(name)
	r.mu.RUnlock()
	if t == nil {
		return nil, fmt.Errorf("partial %q not found", name)
	}
	return templ.FromGoHTML(t, data), nil
}

// Pages returns the names of all loaded pages.
func (r *Renderer) Pages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}

// RenderHTTP renders c into a buffer first so a template error can still
// produce a clean 500, then writes it with the given status.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, req *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(req.Context(), &buf); err != nil {
		r.logger.ErrorContext(req.Context(), "template execution failed", "error", err, "path", req.URL.Path)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
