package report

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// mdRenderer converts report tables to HTML. Cell text reaches it through
// escapeInline, so names render literally.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// Markdown renders rows as a GitHub-style table with the export columns.
func Markdown(rows []Row) []byte {
	var b strings.Builder
	b.WriteString(mdLine(Columns))
	seps := make([]string, len(Columns))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString(mdLine(seps))
	for _, r := range rows {
		b.WriteString(mdLine(r.Fields()))
	}
	return []byte(b.String())
}

// HTML renders the Markdown table through goldmark.
func HTML(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert(Markdown(rows), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest renders a titled HTML document with the rows table, used for the
// at-risk email body.
func Digest(title, intro string, rows []Row) ([]byte, error) {
	var src bytes.Buffer
	src.WriteString("# " + escapeInline(title) + "\n\n")
	if intro != "" {
		src.WriteString(escapeInline(intro) + "\n\n")
	}
	src.Write(Markdown(rows))

	var buf bytes.Buffer
	if err := mdRenderer.Convert(src.Bytes(), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mdLine(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeInline(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

// inlineEscaper backslash-escapes the punctuation that opens inline markup
// (emphasis, code, links, raw HTML, entities) plus the table pipe.
var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"&", `\&`,
	"|", `\|`,
	"~", `\~`,
	"!", `\!`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// escapeInline makes s render as literal text inside a Markdown line.
func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}
