package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
)

//go:embed templates
var templateFS embed.FS

// Form carries submitted values and errors back into a form template.
type Form struct {
	Values map[string]string
	Errors map[string]string
	Error  string // non-field error
}

// NewForm returns an empty form with the given initial values.
func NewForm(values map[string]string) *Form {
	if values == nil {
		values = map[string]string{}
	}
	return &Form{Values: values, Errors: map[string]string{}}
}

func (f *Form) Get(field string) string      { return f.Values[field] }
func (f *Form) ErrorFor(field string) string { return f.Errors[field] }
func (f *Form) Checked(field string) bool    { return f.Values[field] == "true" }
func (f *Form) Valid() bool                  { return len(f.Errors) == 0 && f.Error == "" }

// PageData is the single view model handed to every page and partial.
type PageData struct {
	Title         string
	Authenticated bool
	Viewer        uuid.UUID
	Flashes       []Flash

	Form           *Form
	Tags           []models.EmotionTag
	Page           *models.ThoughtPage
	BasePath       string
	Thought        *models.Thought
	Profile        *models.UserProfile
	User           *models.User
	ShowDailyNudge bool
	ThoughtCount   int
	Next           string
	Message        string
	Status         int
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// ThoughtItem is what the "thought" partial renders.
type ThoughtItem struct {
	Thought *models.Thought
	Own     bool
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"item": func(t models.Thought, viewer uuid.UUID) ThoughtItem {
		return ThoughtItem{Thought: &t, Own: t.IsOwnedBy(viewer)}
	},
	"likeState": func(t *models.Thought) models.LikeState {
		return models.LikeState{ThoughtID: t.ID, Liked: t.Liked, Count: t.LikesCount}
	},
	"maxLength": func() int { return models.MaxThoughtLength },
}

// Renderer executes the embedded page and partial templates.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// New parses every template once.
func New() (*Renderer, error) {
	partials, err := template.New("partials").Funcs(funcs).ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}

	pageFiles, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := path.Base(file)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials/*.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, partials: partials}, nil
}

// Page renders a full page (layout plus page content).
func (r *Renderer) Page(w io.Writer, name string, data interface{}) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Partial renders a single fragment, used for htmx responses.
func (r *Renderer) Partial(w io.Writer, name string, data interface{}) error {
	return r.partials.ExecuteTemplate(w, name, data)
}
