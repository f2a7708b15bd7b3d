package learningpath

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/pathfinder/internal/models"
)

var (
	// ErrNoJSONObject is returned when a reply contains no {...} span
	ErrNoJSONObject = errors.New("no JSON object found in response")
	// ErrInvalidStructure is returned when the JSON lacks a modules array
	ErrInvalidStructure = errors.New("invalid response structure: missing modules array")
	// ErrNoLearningPath marks every parse or validation failure of a reply.
	// Transport failures are never wrapped in it.
	ErrNoLearningPath = errors.New("could not generate a learning path")
)

// jsonObjectPattern matches from the first '{' to the last '}'.
// Unrelated braces in surrounding prose will be swallowed into the match.
var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractJSONObject returns the first-'{'-to-last-'}' substring of a chat reply
func ExtractJSONObject(response string) (string, error) {
	match := jsonObjectPattern.FindString(response)
	if match == "" {
		return "", ErrNoJSONObject
	}
	return match, nil
}

// Normalize parses a learning path, checks that "modules" is an array and
// returns the compact re-serialized JSON. Unknown fields and number
// formatting are preserved.
func Normalize(jsonText string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(jsonText))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return "", fmt.Errorf("failed to parse learning path: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", fmt.Errorf("failed to parse learning path: unexpected data after JSON object")
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return "", ErrInvalidStructure
	}
	if _, ok := obj["modules"].([]any); !ok {
		return "", ErrInvalidStructure
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode learning path: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ParseResponse turns a raw chat reply into normalized learning path JSON.
// Every failure wraps ErrNoLearningPath.
func ParseResponse(response string) (string, error) {
	jsonText, err := ExtractJSONObject(response)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoLearningPath, err)
	}
	normalized, err := Normalize(jsonText)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoLearningPath, err)
	}
	return normalized, nil
}

// ModuleCount returns the length of the modules array without decoding the
// modules themselves, so loosely typed fields are accepted.
func ModuleCount(jsonText string) (int, error) {
	var shape struct {
		Modules []json.RawMessage `json:"modules"`
	}
	if err := json.Unmarshal([]byte(jsonText), &shape); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}
	if shape.Modules == nil {
		return 0, ErrInvalidStructure
	}
	return len(shape.Modules), nil
}

// Decode unmarshals normalized learning path JSON into the typed model
func Decode(jsonText string) (*models.LearningPath, error) {
	var path models.LearningPath
	if err := json.Unmarshal([]byte(jsonText), &path); err != nil {
		return nil, fmt.Errorf("failed to decode learning path: %w", err)
	}
	return &path, nil
}
