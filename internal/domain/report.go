package domain

import (
	"strings"
	"time"
	"unicode"
)

// ReportDateLayout is the layout used for the "Generated on" line of a report.
const ReportDateLayout = "January 02, 2006"

// TopicReport is the generated text for one report topic, or a failure
// placeholder when generation for that topic did not succeed.
type TopicReport struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// TopicReports is an ordered topic -> text mapping. An empty value means
// topic generation did not run.
type TopicReports []TopicReport

// Get returns the content recorded for topic.
func (r TopicReports) Get(topic string) (string, bool) {
	for _, tr := range r {
		if tr.Topic == topic {
			return tr.Content, true
		}
	}
	return "", false
}

// Topics returns the topic keys in order.
func (r TopicReports) Topics() []string {
	keys := make([]string, len(r))
	for i, tr := range r {
		keys[i] = tr.Topic
	}
	return keys
}

// ReportSection is one titled section of a report document.
type ReportSection struct {
	Key     string
	Title   string
	Content string
}

// Paragraphs splits the section content on blank lines.
func (s ReportSection) Paragraphs() []string {
	raw := strings.Split(strings.ReplaceAll(s.Content, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReportDocument is everything a renderer needs to produce the final report.
type ReportDocument struct {
	StudentName string
	CareerGoal  string
	GeneratedAt time.Time
	Sections    []ReportSection
}

// GeneratedDate formats the generation timestamp for display.
func (d ReportDocument) GeneratedDate() string {
	return d.GeneratedAt.Format(ReportDateLayout)
}

// SectionTitle turns a topic key such as "career_roadmap" into "Career Roadmap".
func SectionTitle(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
