package domain

import "strings"

// Defaults applied when a submission leaves student fields out.
const (
	DefaultStudentName = "Student"
	NotProvided        = "Not provided"
	MissingAchievement = "None"
	DefaultCareerGoal  = "Career Exploration"
)

// StudentInfo is the identity and background attached to an assessment.
type StudentInfo struct {
	Name         string   `json:"name"`
	Age          string   `json:"age"`
	AcademicInfo string   `json:"academic_info"`
	Interests    string   `json:"interests"`
	Achievements []string `json:"achievements"`
}

// StudentDetails carries the optional fields of a submission as received.
// Nil pointers mean the field was absent.
type StudentDetails struct {
	Name         *string
	Age          *string
	AcademicInfo *string
	Interests    *string
}

// NewStudentInfo builds a StudentInfo from submission details, reading
// achievements from the given answer ids.
func NewStudentInfo(details StudentDetails, answers *AnswerSet, achievementQuestions []string) StudentInfo {
	info := StudentInfo{
		Name:         DefaultStudentName,
		Age:          valueOr(details.Age, NotProvided),
		AcademicInfo: valueOr(details.AcademicInfo, NotProvided),
		Interests:    valueOr(details.Interests, NotProvided),
		Achievements: make([]string, 0, len(achievementQuestions)),
	}
	if details.Name != nil {
		info.Name = strings.TrimSpace(*details.Name)
	}

	for _, q := range achievementQuestions {
		a, ok := answers.Get(q)
		if !ok {
			info.Achievements = append(info.Achievements, MissingAchievement)
			continue
		}
		info.Achievements = append(info.Achievements, a.Text())
	}
	return info
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
