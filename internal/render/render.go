// Package render turns controller views into HTML.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/vokinneberg/research-assistant/internal/assistant"
	"github.com/vokinneberg/research-assistant/internal/types"
)

// RefreshSeconds is how often a loading page reloads itself.
const RefreshSeconds = 2

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Query          string
	Loading        bool
	RefreshSeconds int
	Error          string
	Result         *types.SearchResult
}

// Result writes the answer and numbered source list of result. A nil result
// writes nothing.
func Result(w io.Writer, result *types.SearchResult) error {
	if err := templates.ExecuteTemplate(w, "result", result); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	return nil
}

// Page writes the full page for view. Only one of the loading panel, the
// error panel and the result is rendered, depending on the state.
func Page(w io.Writer, view assistant.View) error {
	data := pageData{
		Query:          view.Query,
		RefreshSeconds: RefreshSeconds,
	}

	switch s := view.State.(type) {
	case assistant.Loading:
		data.Loading = true
	case assistant.Failed:
		data.Error = s.Message
	case assistant.Success:
		data.Result = s.Result
	}

	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
