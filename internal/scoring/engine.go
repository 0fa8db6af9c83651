package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// Engine computes normalized trait scores from answer sets.
type Engine struct {
	table  Table
	traits []string
	// denominators holds, per trait, the sum over questions of the highest
	// option value that question awards the trait.
	denominators map[string]float64
}

// NewEngine validates table against the trait catalog and precomputes the
// normalization denominators. A table that mentions an unknown trait is a
// configuration error.
func NewEngine(table Table) (*Engine, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: scoring table is empty", domain.ErrConfiguration)
	}

	var unknown []string
	for trait := range table.Traits() {
		if !domain.IsKnownTrait(trait) {
			unknown = append(unknown, trait)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: scoring table contains undefined traits: %s",
			domain.ErrConfiguration, strings.Join(unknown, ", "))
	}

	traits := domain.TraitNames()
	denominators := make(map[string]float64, len(traits))
	for _, byTrait := range table {
		for trait, options := range byTrait {
			if len(options) == 0 {
				continue
			}
			best := math.Inf(-1)
			for _, points := range options {
				best = math.Max(best, points)
			}
			denominators[trait] += best
		}
	}

	return &Engine{
		table:        table,
		traits:       traits,
		denominators: denominators,
	}, nil
}

// CalculateScores returns the normalized score of every catalog trait.
// Questions missing from the table and options without a value contribute nothing.
func (e *Engine) CalculateScores(answers *domain.AnswerSet) domain.TraitScores {
	breakdown := e.Breakdown(answers)
	scores := make(domain.TraitScores, len(breakdown))
	for _, ts := range breakdown {
		scores[ts.Name] = ts.Normalized
	}
	return scores
}

// Breakdown returns raw and normalized scores in catalog order.
func (e *Engine) Breakdown(answers *domain.AnswerSet) []domain.TraitScore {
	raw := make(map[string]float64, len(e.traits))

	for _, questionID := range answers.Questions() {
		byTrait, ok := e.table[questionID]
		if !ok {
			continue
		}
		answer, _ := answers.Get(questionID)
		for trait, options := range byTrait {
			for _, selected := range answer.Options {
				raw[trait] += options[selected]
			}
		}
	}

	out := make([]domain.TraitScore, 0, len(e.traits))
	for _, trait := range e.traits {
		out = append(out, domain.TraitScore{
			Name:       trait,
			Raw:        raw[trait],
			Normalized: normalize(raw[trait], e.denominators[trait]),
		})
	}
	return out
}

// Denominator returns the maximum attainable raw score for trait.
func (e *Engine) Denominator(trait string) float64 {
	return e.denominators[trait]
}

// QuestionCount returns the number of questions the table scores.
func (e *Engine) QuestionCount() int {
	return len(e.table)
}

// normalize scales raw into 0-100 rounded to two decimals. Multi-select
// answers can exceed the per-question maximum, so the result is capped.
func normalize(raw, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	pct := math.Round(raw/denominator*100*100) / 100
	return math.Min(100, math.Max(0, pct))
}
