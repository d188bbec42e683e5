package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names understood by TemplateRenderer
const (
	PageIndex  = "index"
	PageNew    = "new"
	PageEdit   = "edit"
	PageSignin = "signin"
	PageError  = "error"
)

// ViewData is the model passed to every page
type ViewData struct {
	Title       string
	Flash       string
	CurrentUser string
	Filenames   []string
	Filename    string
	Content     string
	Username    string
}

// templateFuncs are available to every page. pathEscape must wrap a
// document name wherever it is placed in a URL path.
var templateFuncs = template.FuncMap{
	"pathEscape": url.PathEscape,
}

// TemplateRenderer implements echo.Renderer over the embedded page templates.
// Each page is parsed together with the shared layout.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses all page templates
func NewTemplateRenderer() (*TemplateRenderer, error) {
	pages := map[string]*template.Template{}
	for _, page := range []string{PageIndex, PageNew, PageEdit, PageSignin, PageError} {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = tmpl
	}
	return &TemplateRenderer{pages: pages}, nil
}

// Render satisfies echo.Renderer
func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
