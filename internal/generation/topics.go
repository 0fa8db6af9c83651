package generation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Report topic keys in report order.
const (
	TopicPersonalTraits    = "personal_traits"
	TopicSkillsExcel       = "skills_excel"
	TopicTopCareers        = "top_careers"
	TopicCareerIntro       = "career_intro"
	TopicCareerRoadmap     = "career_roadmap"
	TopicCareerEducation   = "career_education"
	TopicCareerGrowth      = "career_growth"
	TopicIndianColleges    = "indian_colleges"
	TopicGlobalColleges    = "global_colleges"
	TopicIndustryAnalysis  = "industry_analysis"
	TopicFinancialPlanning = "financial_planning"
)

// DefaultTopicOrder lists every report topic in the order it appears in the report.
var DefaultTopicOrder = []string{
	TopicPersonalTraits,
	TopicSkillsExcel,
	TopicTopCareers,
	TopicCareerIntro,
	TopicCareerRoadmap,
	TopicCareerEducation,
	TopicCareerGrowth,
	TopicIndianColleges,
	TopicGlobalColleges,
	TopicIndustryAnalysis,
	TopicFinancialPlanning,
}

var defaultTopicTemplates = map[string]string{
	TopicPersonalTraits: `Analyze {{.StudentName}}'s suitability for {{.CareerGoal}} (1000+ words):
1. Core competencies assessment
2. Personality alignment with career demands
3. Skill gap analysis
4. Development roadmap
5. Mentorship recommendations
{{- if .Context}}

Assessment data:
{{.Context}}
{{- end}}`,

	TopicSkillsExcel: `Comprehensive skills development plan for {{.CareerGoal}}:
1. Technical skills matrix (priority levels)
2. Soft skills development timeline
3. Learning resources (courses, books, podcasts)
4. Practical application projects
5. Certification roadmap
6. Industry networking strategy`,

	TopicTopCareers: `8 alternative careers for {{.CareerGoal}} (500 words each):
- Career title
- Required qualifications
- Skill transfer matrix
- Growth projections (1/5/10 years)
- Transition roadmap
- Industry demand analysis
- Salary benchmarks`,

	TopicCareerIntro: `Comprehensive 5-page guide to {{.CareerGoal}}:
1. Role evolution history
2. Day-to-day responsibilities
3. Industry verticals
4. Global market trends
5. Regulatory landscape
6. Technology adoption
7. Success case studies`,

	TopicCareerRoadmap: `10-year development plan for {{.CareerGoal}}:
1. Education timeline (degrees/certifications)
2. Skill acquisition phases
3. Experience milestones
4. Networking strategy
5. Financial planning
6. Risk mitigation plan
7. Performance metrics`,

	TopicCareerEducation: `Education plan for {{.CareerGoal}}:
1. Global degree options (BS/MS/PhD)
2. Certification hierarchy
3. Online learning pathways
4. Institution rankings
5. Admission strategies
6. Scholarship opportunities`,

	TopicCareerGrowth: `10-year industry projection for {{.CareerGoal}}:
1. Salary trends by region
2. Promotion pathways
3. Emerging specializations
4. Technology disruption analysis
5. Global demand hotspots
6. Entrepreneurship opportunities`,

	TopicIndianColleges: `10 Indian institutions for {{.CareerGoal}} (detailed):
- NIRF/NAAC rankings
- Program structure
- Admission process
- Placement statistics (3 years)
- Industry partnerships
- Research facilities
- Notable alumni
- Campus infrastructure
- Fee structure
- Scholarship programs`,

	TopicGlobalColleges: `15 global universities for {{.CareerGoal}}:
- QS/THE rankings
- Program specializations
- International student support
- Employment statistics
- Application timeline
- Cost of attendance
- Visa success rates
- Cultural adaptation programs
- Alumni network`,

	TopicIndustryAnalysis: `5-year industry analysis for {{.CareerGoal}}:
1. Market size projections
2. Key players analysis
3. Regulatory challenges
4. Technology adoption
5. Sustainability initiatives
6. Regional opportunities`,

	TopicFinancialPlanning: `10-year financial plan for {{.CareerGoal}}:
1. Education cost analysis
2. Funding sources
3. ROI projections
4. Tax optimization
5. Insurance needs
6. Wealth management
7. Exit strategies`,
}

// PromptData is the substitution context for topic templates.
type PromptData struct {
	StudentName string
	CareerGoal  string
	Context     string
}

// TopicCatalog is an ordered set of report topics with their prompt templates.
// A topic may be listed without a template; rendering it fails with
// ErrMissingTemplate.
type TopicCatalog struct {
	order     []string
	templates map[string]*template.Template
}

// NewTopicCatalog parses templates for the topics in order. Templates for
// topics not listed in order are ignored.
func NewTopicCatalog(order []string, templates map[string]string) (*TopicCatalog, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: topic catalog is empty", ErrInvalidConfig)
	}

	c := &TopicCatalog{
		order:     make([]string, 0, len(order)),
		templates: make(map[string]*template.Template, len(templates)),
	}
	seen := make(map[string]bool, len(order))
	for _, key := range order {
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate topic %q", ErrInvalidConfig, key)
		}
		seen[key] = true
		c.order = append(c.order, key)

		text, ok := templates[key]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: topic %q: %v", ErrInvalidConfig, key, err)
		}
		c.templates[key] = tmpl
	}
	return c, nil
}

// DefaultTopicCatalog returns the standard eleven-topic catalog.
func DefaultTopicCatalog() *TopicCatalog {
	c, err := NewTopicCatalog(DefaultTopicOrder, defaultTopicTemplates)
	if err != nil {
		panic(fmt.Sprintf("default topic catalog: %v", err))
	}
	return c
}

// Topics returns the topic keys in report order.
func (c *TopicCatalog) Topics() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Render formats the prompt for topic.
func (c *TopicCatalog) Render(topic string, data PromptData) (string, error) {
	tmpl, ok := c.templates[topic]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingTemplate, topic)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template for %s: %w", topic, err)
	}
	return buf.String(), nil
}
