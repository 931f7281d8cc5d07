// Package render produces the canonical styled HTML document for a card
// list. The block structure and escaping here are the wire contract the
// extractor parses back, so the card markup must stay stable even though the
// stylesheet is free to evolve.
package render

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"cardboard/api/internal/deck"
)

// SafeHTML marks a prebuilt string as safe for template insertion. Only the
// escaped line runs built by lineHTML go through it.
func SafeHTML(s interface{}) template.HTML {
	switch v := s.(type) {
	case string:
		return template.HTML(v)
	case template.HTML:
		return v
	default:
		return template.HTML("")
	}
}

var documentTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower":    strings.ToLower,
		"safeHTML": SafeHTML,
	}
	documentTemplate = template.Must(template.New("document").Funcs(funcMap).Parse(cardDocumentTemplate))
}

type cardView struct {
	TitleHTML template.HTML
	RowsHTML  template.HTML
}

type documentData struct {
	Cards []cardView
}

// Render converts the ordered card list to the canonical HTML document. It is
// pure and total: identical input always yields identical output, and an
// empty list renders a valid document with zero card blocks.
func Render(cards []deck.Card) string {
	data := documentData{Cards: make([]cardView, 0, len(cards))}
	for _, c := range cards {
		data.Cards = append(data.Cards, cardView{
			TitleHTML: template.HTML(lineHTML(c.Title)),
			RowsHTML:  template.HTML(lineHTML(c.Rows)),
		})
	}

	var buf bytes.Buffer
	// The template only touches exported fields of documentData, so
	// execution cannot fail.
	_ = documentTemplate.Execute(&buf, data)
	return buf.String()
}

// lineHTML escapes each normalized line and joins them with explicit break
// markers. Card text is always data, never markup.
func lineHTML(text string) string {
	lines := deck.Lines(text)
	escaped := make([]string, 0, len(lines))
	for _, line := range lines {
		escaped = append(escaped, html.EscapeString(line))
	}
	return strings.Join(escaped, "<br>")
}

const cardDocumentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Cards</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { font-family: 'Segoe UI', Arial, sans-serif; background: #f0f2f5; padding: 24px; }
    .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 16px; max-width: 1200px; margin: 0 auto; }
    .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.12); overflow: hidden; }
    .card-title { background: #2c3e50; color: #fff; padding: 12px 16px; font-weight: 600; line-height: 1.4; }
    .card-rows { padding: 12px 16px; color: #333; line-height: 1.7; }
    @media (max-width: 768px) {
      body { padding: 16px; }
      .cards { grid-template-columns: repeat(auto-fill, minmax(220px, 1fr)); gap: 12px; }
    }
    @media (max-width: 480px) {
      body { padding: 8px; }
      .cards { grid-template-columns: 1fr; gap: 8px; }
      .card-title, .card-rows { padding: 10px 12px; }
    }
  </style>
</head>
<body>
  <div class="cards">
{{range .Cards}}    <div class="card">
      <div class="card-title">{{.TitleHTML | safeHTML}}</div>
      <div class="card-rows">{{.RowsHTML | safeHTML}}</div>
    </div>
{{end}}  </div>
</body>
</html>
`
