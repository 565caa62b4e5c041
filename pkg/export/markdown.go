package export

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sambeau/qdp/pkg/qdp"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "#", `\#`, "<", "&lt;", ">", "&gt;",
)

// Markdown renders t as a GFM pipe table. Masked cells are left empty and
// the table comments become a paragraph above it.
func Markdown(t *qdp.Table) string {
	var sb strings.Builder

	if len(t.Meta.Comments) > 0 {
		for i, c := range t.Meta.Comments {
			if i > 0 {
				sb.WriteString("  \n")
			}
			sb.WriteString(markdownEscaper.Replace(c))
		}
		sb.WriteString("\n\n")
	}

	names := t.ColumnNames()
	for i := range names {
		names[i] = markdownEscaper.Replace(names[i])
	}
	writeMarkdownRow(&sb, names)

	rule := make([]string, len(names))
	for i := range rule {
		rule[i] = "---:"
	}
	writeMarkdownRow(&sb, rule)

	cells := make([]string, len(t.Columns))
	for r := 0; r < t.Len(); r++ {
		for i, c := range t.Columns {
			if c.IsMasked(r) {
				cells[i] = ""
				continue
			}
			cells[i] = qdp.FormatValue(c.Data[r], false)
		}
		writeMarkdownRow(&sb, cells)
	}
	return sb.String()
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(c)
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

// HTML renders t through Markdown into an HTML fragment.
func HTML(t *qdp.Table) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(t)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
