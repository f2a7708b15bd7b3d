package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Module status values
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// LearningPath represents a course broken into scheduled modules
type LearningPath struct {
	CourseName    string     `json:"courseName" yaml:"courseName"`
	TotalDuration FlexString `json:"totalDuration" yaml:"totalDuration"`
	StartDate     string     `json:"startDate" yaml:"startDate"`
	EndDate       string     `json:"endDate" yaml:"endDate"`
	TotalHours    FlexString `json:"totalHours" yaml:"totalHours"`
	HoursPerWeek  FlexString `json:"hoursPerWeek" yaml:"hoursPerWeek"`
	Modules       []Module   `json:"modules" yaml:"modules"`
}

// Module is one scheduled unit of a learning path
type Module struct {
	ID            int        `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Description   string     `json:"description" yaml:"description"`
	Duration      FlexString `json:"duration" yaml:"duration"`
	HoursRequired FlexString `json:"hoursRequired" yaml:"hoursRequired"`
	StartDate     string     `json:"startDate" yaml:"startDate"`
	EndDate       string     `json:"endDate" yaml:"endDate"`
	Status        string     `json:"status" yaml:"status"` // "pending", "in_progress", "completed"
	Quiz          *Quiz      `json:"quiz,omitempty" yaml:"quiz,omitempty"`
}

// Quiz holds the questions generated for a module
type Quiz struct {
	Questions []QuizQuestion `json:"questions" yaml:"questions"`
}

// QuizQuestion is a four-option multiple choice question
type QuizQuestion struct {
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
}

// AnswerIndex returns the position of the correct answer among the options, or -1
func (q QuizQuestion) AnswerIndex() int {
	for i, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return i
		}
	}
	return -1
}

// ExtractedText is the OCR output for one uploaded document
type ExtractedText struct {
	Text      string `json:"text"`
	SavedPath string `json:"saved_path"`
	Pages     int    `json:"pages"`
}

// FlexString accepts JSON strings as well as bare numbers and booleans.
// Chat models are inconsistent about quoting fields like "totalHours".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.TrimSpace(string(data)))
	return nil
}
