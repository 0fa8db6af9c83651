package generation

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// BuildAssessmentContext renders scores and student details into the text
// blob handed to topic prompts.
func BuildAssessmentContext(scores domain.TraitScores, student domain.StudentInfo) (string, error) {
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("failed to encode trait scores: %w", err)
	}
	studentJSON, err := json.Marshal(student)
	if err != nil {
		return "", fmt.Errorf("failed to encode student info: %w", err)
	}
	return fmt.Sprintf("Trait Scores: %s\nStudent Info: %s", scoresJSON, studentJSON), nil
}
