package components

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/rubiojr/efinder/cmd/web/components/types"
	"github.com/rubiojr/efinder/pkg/search"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"count": search.FormatCount,
	"query": func(s string) url.Values {
		v, _ := url.ParseQuery(s)
		return v
	},
}

var pages = map[string]*template.Template{
	"home":        parsePage("home.html"),
	"books":       parsePage("books.html"),
	"settings":    parsePage("settings.html"),
	"coming_soon": parsePage("coming_soon.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

func page(name string, data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[name].ExecuteTemplate(w, "layout", data)
	})
}

// Index renders the category overview.
func Index(data types.PageData) templ.Component {
	return page("home", data)
}

// Books renders the book search page.
func Books(data types.PageData) templ.Component {
	return page("books", data)
}

// Settings renders the backend settings form.
func Settings(data types.PageData) templ.Component {
	return page("settings", data)
}

// ComingSoon renders the placeholder page of an unavailable category.
func ComingSoon(data types.PageData) templ.Component {
	return page("coming_soon", data)
}
