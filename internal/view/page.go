package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/index.html"),
)

// Page is everything the index template needs.
type Page struct {
	Query     string
	Input     string
	FormError string
	Result    Result
	MinLength int
	MaxLength int
}

func NewPage(query string, result Result) Page {
	return Page{
		Query:     query,
		Input:     query,
		Result:    result,
		MinLength: MinCityLength,
		MaxLength: MaxCityLength,
	}
}

func RenderPage(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}
