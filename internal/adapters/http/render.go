package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"glp/internal/adapters/http/middleware"
	"glp/internal/application/listutil"
	"glp/internal/application/projections"
	"glp/internal/domain/calendar"
	"glp/internal/domain/permission"
	"glp/internal/domain/project"
	"glp/internal/domain/training"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Display layouts.
const (
	displayDate     = "2 Jan 2006"
	displayDateTime = "Mon 2 Jan 2006 15:04"
)

var funcs = template.FuncMap{
	"markdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"date":          formatIf(displayDate),
	"datetime":      formatLocal(displayDateTime),
	"dateInput":     formatIf("2006-01-02"),
	"clock":         formatLocal("15:04"),
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"label": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"seq": func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
	"contains": func(list []string, v string) bool { return slices.Contains(list, v) },
	"lines":    func(list []string) string { return strings.Join(list, "\n") },
	"first": func(list []string) string {
		if len(list) == 0 {
			return ""
		}
		return list[0]
	},
	"filter": func(f listutil.FilterParams, key string) string { return f.Filters[key] },
	"dateFilters": func() []string { return projections.DateFilters },
	"pager": func(base string, p listutil.PageInfo, f listutil.FilterParams) pager {
		return pager{Base: base, Page: p, Filter: f}
	},
	"dayKey":         calendar.Key,
	"projectActions": project.AvailableActions,
	"sessionActions": training.AvailableActions,
	"endsAt":         func(ts training.Session) time.Time { return ts.EndsAt() },
	"statusLabel":    project.StatusLabel,
}

// pager is the argument of the shared "pagination" template.
type pager struct {
	Base   string
	Page   listutil.PageInfo
	Filter listutil.FilterParams
}

func formatIf(layout string) func(time.Time) string {
	return func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	}
}

// formatLocal is for instants such as session start times, shown in server local time.
func formatLocal(layout string) func(time.Time) string {
	return func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format(layout)
	}
}

// renderer holds one parsed template set per page: layout.html plus the page file.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

// view is the data every page template receives. Page specific values live in Data.
type view struct {
	Title     string
	Section   string // highlighted navigation entry
	Session   *middleware.Session
	CSRFField template.HTML
	Flash     *middleware.Flash
	Unread    int
	Errors    []string
	Data      any
	perms     *permission.Table
}

// Can reports whether the viewer holds perm.
func (v view) Can(perm string) bool {
	return v.Session != nil && v.perms.Has(v.Session.Role, perm)
}

// page builds the common view for a request and consumes any pending flash message.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title, section string) view {
	v := view{
		Title:     title,
		Section:   section,
		CSRFField: csrf.TemplateField(r),
		perms:     s.perms,
	}
	if sess, ok := middleware.SessionFrom(r.Context()); ok {
		v.Session = &sess
		n, err := projections.QueryUnreadCount(r.Context(), sess.UserID, s.stores.Notifications)
		if err != nil {
			slog.Error("unread_count_failed", "user_id", sess.UserID, "error", err)
		}
		v.Unread = n
	}
	if f, ok := s.flash.Pop(w, r); ok {
		v.Flash = &f
	}
	return v
}

// render executes a page template into a buffer so a template failure never sends half a page.
func (s *Server) render(w http.ResponseWriter, status int, name string, v view) {
	t, ok := s.views.pages[name]
	if !ok {
		slog.Error("template_missing", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		slog.Error("template_render_failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
