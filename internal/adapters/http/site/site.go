// Package site renders the hair health pages and serves their static assets.
package site

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/hairhealth/internal/domain/model"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
)

// Page template names.
const (
	pageForm   = "index.html"
	pageResult = "result.html"
	pageReport = "report.html"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Field is one select control of the form.
type Field struct {
	Name    string
	Label   string
	Options []string
}

// FormData feeds the questionnaire page.
type FormData struct {
	Stress    []string
	Pollution []string
	Coloring  []string
	Budget    []string
	Genetics  []string
	Issues    []string
	Error     string
}

// FormDataFrom builds the form choices from the categories the models accept.
// Issue checkboxes always list model.KnownIssues.
func FormDataFrom(vocab map[string][]string) FormData {
	return FormData{
		Stress:    vocab[model.ColStress],
		Pollution: vocab[model.ColPollution],
		Coloring:  vocab[model.ColColoring],
		Budget:    vocab[model.ColBudget],
		Genetics:  vocab[model.ColGenetics],
		Issues:    model.KnownIssues,
	}
}

// ResultData feeds the result page. Values come straight from the query
// string and are escaped by the template.
type ResultData struct {
	Score       string
	Risk        string
	ResultClass string
	Tips        []string
}

// ReportData feeds the printable report converted to PDF.
type ReportData struct {
	Score       int
	Risk        string
	Tips        []string
	GeneratedAt time.Time
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"field": func(name, label string, options []string) Field {
			return Field{Name: name, Label: label, Options: options}
		},
	}
	r := &Renderer{pages: make(map[string]*template.Template, 3)}
	for _, name := range []string{pageForm, pageResult, pageReport} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrTemplate, name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Form writes the questionnaire page.
func (r *Renderer) Form(w io.Writer, data FormData) error {
	return r.execute(w, pageForm, data)
}

// Result writes the result page.
func (r *Renderer) Result(w io.Writer, data ResultData) error {
	return r.execute(w, pageResult, data)
}

// Report returns the report document handed to the PDF renderer.
func (r *Renderer) Report(data ReportData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.execute(&buf, pageReport, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// execute renders into a buffer first so a failing template never leaves a
// half written page on the wire.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("%w: unknown page %s", ErrTemplate, name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// StaticFS returns the embedded stylesheet tree rooted at static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Register attaches the static asset routes to r.
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	files := http.StripPrefix("/static/", http.FileServer(http.FS(StaticFS())))
	r.Handle("/static/*", files)
}
