package learningpath

import "fmt"

// BuildPrompt generates the learning path instruction for a syllabus and date range.
// Dates are embedded as given; no format validation happens here.
func BuildPrompt(syllabusText, startDate, endDate string, includeQuiz bool) string {
	quizShape := ""
	quizRequirement := ""
	formatRequirement := "6. The response must be in valid JSON format"
	if includeQuiz {
		quizShape = `,
      "quiz": {
        "questions": [
          {
            "question": "Quiz question text",
            "options": [
              "Option 1",
              "Option 2",
              "Option 3",
              "Option 4"
            ],
            "correctAnswer": "Option 1"
          }
        ]
      }`
		quizRequirement = "6. Generate quiz questions for each module based on the description\n"
		formatRequirement = "7. The response must be in valid JSON format"
	}

	return fmt.Sprintf(`Based on the following syllabus content, create a detailed learning path with timeline and schedule. The learning path should start from %[1]s and end by %[2]s.

Syllabus Content:
%[3]s

Please provide a response in the following JSON format:
{
  "courseName": "Name of the Course",
  "totalDuration": "Total duration in weeks",
  "startDate": "%[1]s",
  "endDate": "%[2]s",
  "totalHours": "Total hours required",
  "hoursPerWeek": "Recommended hours per week",
  "modules": [
    {
      "id": 1,
      "title": "Module Title",
      "description": "Detailed description of the module",
      "duration": "Duration in days/weeks",
      "hoursRequired": "Hours required for this module",
      "startDate": "Module start date",
      "endDate": "Module end date",
      "status": "pending"%[4]s
    }
  ]
}

Important Requirements:
1. Ensure the entire learning path fits within the specified start and end dates
2. Break down the content into manageable modules
3. Provide realistic time estimates for each module
4. Include specific dates for each module
5. Calculate required hours per week based on the content and timeline
%[5]s%[6]s`,
		startDate,
		endDate,
		syllabusText,
		quizShape,
		quizRequirement,
		formatRequirement,
	)
}
