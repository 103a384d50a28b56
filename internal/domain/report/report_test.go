package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"catequesis/internal/domain/risk"
	"catequesis/internal/domain/roster"
	"catequesis/internal/domain/stats"
)

const wantHeader = `"Nombre","Apellido","Documento","Grupo","Total Sesiones","Asistencias","Ausencias","Porcentaje","Clasificación"`

// TestExportCSV_Empty yields header-only output.
func TestExportCSV_Empty(t *testing.T) {
	got := string(ExportCSV(nil))
	if got != wantHeader {
		t.Fatalf("ExportCSV(nil) = %q, want header only", got)
	}
}

// TestExportCSV_Row checks column order, quoting and percentage format.
func TestExportCSV_Row(t *testing.T) {
	e := roster.Enrollment{ID: "e1", LearnerName: "Ana", LearnerSurname: `O"Brien`, DocumentID: "0102030405", GroupID: "g1"}
	g := roster.Group{ID: "g1", Name: "Primera Comunión", ParishName: "San José", Period: "2024"}
	s := stats.LearnerSummaryOf("e1", nil)
	s.TotalSessions, s.AttendedCount, s.AbsentCount = 3, 2, 1
	s.Percentage = risk.Percentage(2, 3)
	s.Classification = risk.Classify(s.Percentage)

	got := string(ExportCSV([]Row{NewRow(e, g, s)}))
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2:\n%s", len(lines), got)
	}
	want := `"Ana","O""Brien","0102030405","Primera Comunión (2024)","3","2","1","66.67%","Deficiente"`
	if lines[1] != want {
		t.Errorf("row =\n%s\nwant\n%s", lines[1], want)
	}
}

// TestExportCSV_InsufficientData labels zero-sample rows distinctly.
func TestExportCSV_InsufficientData(t *testing.T) {
	row := Row{Name: "Luis", Summary: stats.LearnerSummaryOf("e2", nil)}
	got := string(ExportCSV([]Row{row}))
	if !strings.HasSuffix(got, `"0","0","0","0.00%","Sin datos"`) {
		t.Errorf("row = %q", got)
	}
}

// TestFilename follows the resumen_asistencia_<date> convention.
func TestFilename(t *testing.T) {
	day := time.Date(2024, 2, 19, 10, 0, 0, 0, time.UTC)
	if got := Filename(FormatCSV, day); got != "resumen_asistencia_2024-02-19.csv" {
		t.Errorf("Filename = %q", got)
	}
	if got := Filename(FormatHTML, day); got != "resumen_asistencia_2024-02-19.html" {
		t.Errorf("Filename = %q", got)
	}
}

// TestParseFormat covers defaults and rejection.
func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "md": FormatMarkdown, "markdown": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xlsx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestRender_HTMLTable renders a table through goldmark and escapes markup.
func TestRender_HTMLTable(t *testing.T) {
	row := Row{Name: "<b>Ana</b>", Surname: "Vera | Paz", Summary: stats.LearnerSummaryOf("e1", nil)}
	body, err := Render(FormatHTML, []Row{row})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(body)
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "<th>Nombre</th>") {
		t.Errorf("expected a rendered table, got:\n%s", html)
	}
	if !strings.Contains(html, "<td>&lt;b&gt;Ana&lt;/b&gt;</td>") {
		t.Errorf("markup in cells should render as text, got:\n%s", html)
	}
	if !strings.Contains(html, "Vera | Paz") {
		t.Errorf("escaped pipe should render literally, got:\n%s", html)
	}

	md, err := Render(FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("Render md: %v", err)
	}
	if strings.Count(string(md), "\n") != 2 {
		t.Errorf("empty markdown should be header + separator, got %q", md)
	}
}

func TestDigest(t *testing.T) {
	row := Row{Name: "Ana", Surname: "Vera", GroupLabel: "Confirmación A (2024)", Summary: stats.LearnerSummaryOf("e1", nil)}
	body, err := Digest("Catequizandos en riesgo", "Umbral: 70.00%", []Row{row})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	html := string(body)
	for _, want := range []string{"<h1>Catequizandos en riesgo</h1>", "<p>Umbral: 70.00%</p>", "<td>Ana</td>"} {
		if !strings.Contains(html, want) {
			t.Errorf("digest missing %q:\n%s", want, html)
		}
	}
}

// TestMarkdownAndHTML_LiteralPunctuation keeps markup characters in names as text.
func TestMarkdownAndHTML_LiteralPunctuation(t *testing.T) {
	row := Row{
		Name:       "Ana_María_",
		Surname:    "*x*",
		GroupLabel: "<b>g</b> & [Santa `Ana`]",
		Summary:    stats.LearnerSummaryOf("e1", nil),
	}

	md := string(Markdown([]Row{row}))
	for _, want := range []string{`| Ana\_María\_ | \*x\* |`, `\<b\>g\</b\> \& \[Santa \` + "`" + `Ana\` + "`" + `\]`} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	body, err := HTML([]Row{row})
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	html := string(body)
	for _, want := range []string{
		"<td>Ana_María_</td>",
		"<td>*x*</td>",
		"<td>&lt;b&gt;g&lt;/b&gt; &amp; [Santa `Ana`]</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q:\n%s", want, html)
		}
	}
	for _, bad := range []string{"<em>", "raw HTML omitted", "<code>", "<a "} {
		if strings.Contains(html, bad) {
			t.Errorf("html contains %q:\n%s", bad, html)
		}
	}
}

func TestDigest_EscapesScope(t *testing.T) {
	body, err := Digest("Riesgo", "Grupo <i>A</i> & *B*", nil)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if want := "<p>Grupo &lt;i&gt;A&lt;/i&gt; &amp; *B*</p>"; !strings.Contains(string(body), want) {
		t.Errorf("digest missing %q:\n%s", want, body)
	}
}
