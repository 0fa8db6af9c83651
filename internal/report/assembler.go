package report

import (
	"time"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// Assembler merges student identity, career goal and topic texts into a
// ReportDocument.
type Assembler struct {
	now func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source used for the generation date.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildReport returns the report document with one section per topic, in
// the order the topics were generated. Placeholder texts are kept as they are.
func (a *Assembler) BuildReport(studentName, careerGoal string, reports domain.TopicReports) domain.ReportDocument {
	sections := make([]domain.ReportSection, 0, len(reports))
	for _, r := range reports {
		sections = append(sections, domain.ReportSection{
			Key:     r.Topic,
			Title:   domain.SectionTitle(r.Topic),
			Content: r.Content,
		})
	}

	return domain.ReportDocument{
		StudentName: studentName,
		CareerGoal:  careerGoal,
		GeneratedAt: a.now(),
		Sections:    sections,
	}
}
