package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/domain"
	"github.com/sgtes/maismedicos-go/internal/uploads"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// views holds one template set per page, each parsed together with the layout.
type views struct {
	pages map[string]*template.Template
}

func loadViews() (*views, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	v := &views{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := path.Base(file)
		t, err := template.New(name).
			Funcs(templateFuncs()).
			Option("missingkey=error").
			ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (v *views) execute(w io.Writer, name string, data any) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"friendly": uploads.FriendlyName,
		"cnes":     uploads.NormalizeCNES,
		"dataBR":   formatDataBR,
		"kb": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"hasField": func(fe domain.FieldErrors, field string) bool {
			_, ok := fe[field]
			return ok
		},
		"fieldError": func(fe domain.FieldErrors, field string) string {
			return fe[field]
		},
	}
}

func formatDataBR(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

type errorView struct {
	pageBase
	Status  int
	Message string
}

func (api *portalAPI) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := api.views.execute(&buf, name, data); err != nil {
		api.logger.Error("render failed", "page", name, "request_id", r.Header.Get("X-Request-Id"), "error", err)
		http.Error(w, "Erro interno.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (api *portalAPI) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	api.render(w, r, status, "error.html", errorView{
		pageBase: pageBase{Title: "Erro"},
		Status:   status,
		Message:  message,
	})
}
