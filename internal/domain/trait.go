package domain

import "sort"

// traitCatalog is the fixed, ordered set of traits every score report covers.
var traitCatalog = []string{
	// cognitive
	"Analytical Thinking",
	"Critical Thinking",
	"Problem-Solving",
	"Logical Reasoning",
	"Decision-Making",
	"Strategic Planning",
	"Research Skills",
	"Data Analysis",
	// communication
	"Verbal Communication",
	"Written Communication",
	"Presentation Skills",
	"Active Listening",
	"Negotiation",
	"Persuasion",
	"Public Speaking",
	// interpersonal
	"Teamwork",
	"Collaboration",
	"Empathy",
	"Conflict Resolution",
	"Networking",
	"Relationship Building",
	// technical
	"Technical Aptitude",
	"Coding/Programming",
	"Mathematical Skills",
	"Scientific Knowledge",
	"Digital Literacy",
	// creative
	"Creativity",
	"Innovation",
	"Design Thinking",
	"Artistic Skills",
	"Content Creation",
	// leadership and personal effectiveness
	"Leadership",
	"Time Management",
	"Project Management",
	"Organizational Skills",
	"Entrepreneurial Mindset",
	"Adaptability",
	"Work Ethic",
	"Resilience",
	"Attention to Detail",
}

var knownTraits = func() map[string]struct{} {
	m := make(map[string]struct{}, len(traitCatalog))
	for _, name := range traitCatalog {
		m[name] = struct{}{}
	}
	return m
}()

// TraitNames returns the trait catalog in its canonical order.
// The returned slice is a copy and may be modified by the caller.
func TraitNames() []string {
	names := make([]string, len(traitCatalog))
	copy(names, traitCatalog)
	return names
}

// IsKnownTrait reports whether name belongs to the trait catalog.
func IsKnownTrait(name string) bool {
	_, ok := knownTraits[name]
	return ok
}

// TraitScore is the computed state of one trait for one answer set.
type TraitScore struct {
	Name       string  `json:"name"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
}

// TraitScores maps every catalog trait to its normalized score (0-100).
type TraitScores map[string]float64

// Ranked returns the scores ordered from highest to lowest, ties broken by
// catalog order.
func (s TraitScores) Ranked() []TraitScore {
	ranked := make([]TraitScore, 0, len(traitCatalog))
	for _, name := range traitCatalog {
		ranked = append(ranked, TraitScore{Name: name, Normalized: s[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Normalized > ranked[j].Normalized
	})
	return ranked
}
