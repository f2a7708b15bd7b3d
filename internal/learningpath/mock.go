package learningpath

import (
	"fmt"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pathfinder/internal/models"
)

// ISOFormat matches JavaScript's Date.prototype.toISOString
const ISOFormat = "2006-01-02T15:04:05.000Z"

const day = 24 * time.Hour

// FormatISO renders t in UTC with millisecond precision
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOFormat)
}

// dateLayouts are tried in order. Zone-less forms are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps, the same timestamps without a zone
// (with or without seconds) and bare YYYY-MM-DD dates.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// MockPath returns the fixed three-module learning path used when no chat
// backend is configured. Syllabus content is ignored. Module boundaries sit at
// start+7d and start+21d; the last module ends on endDate exactly.
func MockPath(startDate, endDate string, includeQuiz bool) (*models.LearningPath, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to build mock learning path: %w", err)
	}

	week1 := FormatISO(start.Add(7 * day))
	week3 := FormatISO(start.Add(21 * day))

	modules := []models.Module{
		{
			ID:            1,
			Title:         "Introduction",
			Description:   "Basic concepts and fundamentals",
			Duration:      "1 week",
			HoursRequired: "10 hours",
			StartDate:     startDate,
			EndDate:       week1,
			Status:        models.StatusPending,
		},
		{
			ID:            2,
			Title:         "Core Concepts",
			Description:   "Main topics and principles",
			Duration:      "2 weeks",
			HoursRequired: "20 hours",
			StartDate:     week1,
			EndDate:       week3,
			Status:        models.StatusPending,
		},
		{
			ID:            3,
			Title:         "Advanced Topics",
			Description:   "Complex concepts and applications",
			Duration:      "1 week",
			HoursRequired: "10 hours",
			StartDate:     week3,
			EndDate:       endDate,
			Status:        models.StatusPending,
		},
	}

	if includeQuiz {
		for i := range modules {
			modules[i].Quiz = &models.Quiz{Questions: mockQuestions[i]}
		}
	}

	return &models.LearningPath{
		CourseName:    "Sample Course",
		TotalDuration: "4 weeks",
		StartDate:     startDate,
		EndDate:       endDate,
		TotalHours:    "40 hours",
		HoursPerWeek:  "10 hours",
		Modules:       modules,
	}, nil
}

var mockQuestions = [3][]models.QuizQuestion{
	{
		{
			Question:      "What is the main concept introduced in this module?",
			Options:       []string{"Foundation principles", "Advanced applications", "System architecture", "Implementation details"},
			CorrectAnswer: "Foundation principles",
		},
		{
			Question:      "Which learning approach is recommended for beginners?",
			Options:       []string{"Start with complex problems", "Begin with fundamentals", "Skip basic concepts", "Focus on implementation only"},
			CorrectAnswer: "Begin with fundamentals",
		},
		{
			Question:      "What is the primary goal of the introductory module?",
			Options:       []string{"Building strong foundations", "Advanced problem solving", "System optimization", "Performance tuning"},
			CorrectAnswer: "Building strong foundations",
		},
		{
			Question:      "How should students approach the learning material?",
			Options:       []string{"Skip theoretical concepts", "Focus only on practical aspects", "Balance theory and practice", "Memorize without understanding"},
			CorrectAnswer: "Balance theory and practice",
		},
		{
			Question:      "What is the recommended study pattern?",
			Options:       []string{"Irregular intervals", "Consistent daily practice", "Weekend cramming", "Monthly reviews"},
			CorrectAnswer: "Consistent daily practice",
		},
	},
	{
		{
			Question:      "Which principle is fundamental to core concepts?",
			Options:       []string{"Modularity", "Complexity", "Ambiguity", "Redundancy"},
			CorrectAnswer: "Modularity",
		},
		{
			Question:      "How do core concepts build upon introduction?",
			Options:       []string{"They are completely independent", "They extend basic principles", "They replace basic concepts", "They are unrelated"},
			CorrectAnswer: "They extend basic principles",
		},
		{
			Question:      "What is the key focus of core concept implementation?",
			Options:       []string{"Speed over accuracy", "Quantity over quality", "Quality and efficiency", "Minimal effort"},
			CorrectAnswer: "Quality and efficiency",
		},
		{
			Question:      "How should core concepts be applied in practice?",
			Options:       []string{"Randomly", "Systematically", "Occasionally", "Never"},
			CorrectAnswer: "Systematically",
		},
		{
			Question:      "What is the relationship between different core concepts?",
			Options:       []string{"They are isolated", "They are interconnected", "They are contradictory", "They are redundant"},
			CorrectAnswer: "They are interconnected",
		},
	},
	{
		{
			Question:      "What distinguishes advanced topics from core concepts?",
			Options:       []string{"Level of complexity", "Amount of content", "Study duration", "Number of examples"},
			CorrectAnswer: "Level of complexity",
		},
		{
			Question:      "How should advanced topics be approached?",
			Options:       []string{"Rush through quickly", "Skip difficult parts", "Methodically and thoroughly", "Memorize without understanding"},
			CorrectAnswer: "Methodically and thoroughly",
		},
		{
			Question:      "What is the best way to master advanced concepts?",
			Options:       []string{"Skipping prerequisites", "Regular practice and application", "Memorization only", "Avoiding challenges"},
			CorrectAnswer: "Regular practice and application",
		},
		{
			Question:      "How do advanced topics relate to real-world applications?",
			Options:       []string{"They are purely theoretical", "They have direct practical applications", "They are unnecessary", "They are outdated"},
			CorrectAnswer: "They have direct practical applications",
		},
		{
			Question:      "What is the expected outcome of mastering advanced topics?",
			Options:       []string{"Basic understanding", "Intermediate knowledge", "Expert-level proficiency", "No improvement"},
			CorrectAnswer: "Expert-level proficiency",
		},
	},
}
