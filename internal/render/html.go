package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

type sectionView struct {
	Key        string
	Title      string
	Paragraphs []template.HTML
}

type reportView struct {
	StudentName   string
	CareerGoal    string
	GeneratedDate string
	Sections      []sectionView
}

// HTMLRenderer renders a report as a standalone HTML page.
type HTMLRenderer struct {
	tmpl     *template.Template
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
	logger   *slog.Logger
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer parses the embedded report template.
func NewHTMLRenderer(logger *slog.Logger) (*HTMLRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("report.html.tmpl").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}

	return &HTMLRenderer{
		tmpl:     tmpl,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
		logger:   logger.With("component", "html_renderer"),
	}, nil
}

// Extension implements Renderer.
func (r *HTMLRenderer) Extension() string {
	return FormatHTML
}

// Render writes the HTML page to destPath.
func (r *HTMLRenderer) Render(ctx context.Context, doc domain.ReportDocument, destPath string) (string, error) {
	page, err := r.RenderHTML(doc)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(destPath, bytes.NewReader(page)); err != nil {
		return "", err
	}
	r.logger.DebugContext(ctx, "wrote HTML report", "bytes", len(page), "sections", len(doc.Sections))
	return destPath, nil
}

// RenderHTML returns the report page in memory.
func (r *HTMLRenderer) RenderHTML(doc domain.ReportDocument) ([]byte, error) {
	view := reportView{
		StudentName:   doc.StudentName,
		CareerGoal:    doc.CareerGoal,
		GeneratedDate: doc.GeneratedDate(),
		Sections:      make([]sectionView, 0, len(doc.Sections)),
	}
	for _, s := range doc.Sections {
		sv := sectionView{Key: s.Key, Title: s.Title}
		for _, p := range s.Paragraphs() {
			html, err := r.paragraphHTML(p)
			if err != nil {
				return nil, fmt.Errorf("%w: section %s: %v", ErrRender, s.Key, err)
			}
			sv.Paragraphs = append(sv.Paragraphs, html)
		}
		view.Sections = append(view.Sections, sv)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("%w: execute template: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// paragraphHTML converts generated Markdown to sanitized HTML.
func (r *HTMLRenderer) paragraphHTML(markdown string) (template.HTML, error) {
	var out bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &out); err != nil {
		return "", err
	}
	return template.HTML(r.policy.SanitizeBytes(out.Bytes())), nil //nolint:gosec // sanitized above
}
