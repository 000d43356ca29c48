package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Raw shapes returned by the review procedures. Any field may be null.

// RawModuleSummary is one module row inside a center review listing.
type RawModuleSummary struct {
	AttemptModuleID  uuid.UUID `json:"attempt_module_id"`
	ModuleType       *string   `json:"module_type"`
	Status           *string   `json:"status"`
	BandScore        *float64  `json:"band_score"`
	TimeSpentSeconds *int      `json:"time_spent_seconds"`
}

// RawAttemptReview is one row of get_center_reviews.
type RawAttemptReview struct {
	AttemptID        uuid.UUID          `json:"attempt_id"`
	Status           *string            `json:"status"`
	StudentName      *string            `json:"student_name"`
	StudentEmail     *string            `json:"student_email"`
	PaperTitle       *string            `json:"paper_title"`
	StartedAt        *time.Time         `json:"started_at"`
	CompletedAt      *time.Time         `json:"completed_at"`
	TimeSpentSeconds *int               `json:"time_spent_seconds"`
	OverallBand      *float64           `json:"overall_band"`
	Modules          []RawModuleSummary `json:"modules"`
}

// RawAnswer is a single student answer with its grading state.
type RawAnswer struct {
	ID            uuid.UUID `json:"id"`
	QuestionRef   *string   `json:"question_ref"`
	QuestionType  *string   `json:"question_type"`
	QuestionText  *string   `json:"question_text"`
	StudentAnswer *string   `json:"student_answer"`
	CorrectAnswer *string   `json:"correct_answer"`
	IsCorrect     *bool     `json:"is_correct"`
	MarksAwarded  *float64  `json:"marks_awarded"`
	MaxMarks      *float64  `json:"max_marks"`
}

// RawModuleDetail is a module with its answers.
type RawModuleDetail struct {
	AttemptModuleID  uuid.UUID   `json:"attempt_module_id"`
	ModuleType       *string     `json:"module_type"`
	Status           *string     `json:"status"`
	Score            *float64    `json:"score"`
	BandScore        *float64    `json:"band_score"`
	TimeSpentSeconds *int        `json:"time_spent_seconds"`
	Feedback         *string     `json:"feedback"`
	CompletedAt      *time.Time  `json:"completed_at"`
	Answers          []RawAnswer `json:"answers"`
}

// RawStudent identifies the student who took an attempt.
type RawStudent struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// RawAttemptDetail is the result of get_attempt_preview.
type RawAttemptDetail struct {
	AttemptID        uuid.UUID         `json:"attempt_id"`
	Status           *string           `json:"status"`
	Student          *RawStudent       `json:"student"`
	PaperTitle       *string           `json:"paper_title"`
	StartedAt        *time.Time        `json:"started_at"`
	CompletedAt      *time.Time        `json:"completed_at"`
	TimeSpentSeconds *int              `json:"time_spent_seconds"`
	OverallBand      *float64          `json:"overall_band"`
	Modules          []RawModuleDetail `json:"modules"`
}

// RawGradingData is the result of get_grading_data.
type RawGradingData struct {
	AttemptID  uuid.UUID       `json:"attempt_id"`
	PaperTitle *string         `json:"paper_title"`
	Student    *RawStudent     `json:"student"`
	Module     RawModuleDetail `json:"module"`
}

// GradeAnswer is one element of the save_grades answers array.
type GradeAnswer struct {
	ID           uuid.UUID `json:"id"`
	IsCorrect    bool      `json:"is_correct"`
	MarksAwarded float64   `json:"marks_awarded"`
}

// SaveGradesResult is returned by save_grades.
type SaveGradesResult struct {
	Success    bool     `json:"success"`
	BandScore  *float64 `json:"band_score"`
	TotalScore *float64 `json:"total_score"`
	Error      *string  `json:"error"`
}

// GradingDecision is an examiner's verdict on a single answer.
type GradingDecision struct {
	AnswerID     uuid.UUID `json:"answerId"`
	QuestionRef  string    `json:"questionRef"`
	IsCorrect    bool      `json:"isCorrect"`
	MarksAwarded float64   `json:"marksAwarded"`
}

// View models served to the dashboard. Never null where a display default exists.

// ModuleSummary is a module line in a review listing.
type ModuleSummary struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	BandScore *float64  `json:"bandScore"`
	Duration  string    `json:"duration"`
}

// AttemptReview is a row of the center review table.
type AttemptReview struct {
	AttemptID    uuid.UUID       `json:"attemptId"`
	StudentName  string          `json:"studentName"`
	StudentEmail string          `json:"studentEmail"`
	PaperTitle   string          `json:"paperTitle"`
	Status       string          `json:"status"`
	StartedAt    string          `json:"startedAt"`
	CompletedAt  string          `json:"completedAt"`
	Duration     string          `json:"duration"`
	OverallBand  *float64        `json:"overallBand"`
	Modules      []ModuleSummary `json:"modules"`
}

// Answer is a display-ready answer.
type Answer struct {
	ID            uuid.UUID `json:"id"`
	QuestionRef   string    `json:"questionRef"`
	QuestionType  string    `json:"questionType"`
	QuestionText  string    `json:"questionText"`
	StudentAnswer string    `json:"studentAnswer"`
	CorrectAnswer string    `json:"correctAnswer"`
	IsCorrect     *bool     `json:"isCorrect"`
	MarksAwarded  *float64  `json:"marksAwarded"`
	MaxMarks      *float64  `json:"maxMarks"`
}

// ModuleDetail is a display-ready module with answers.
type ModuleDetail struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score"`
	BandScore   *float64  `json:"bandScore"`
	Duration    string    `json:"duration"`
	Feedback    string    `json:"feedback"`
	CompletedAt string    `json:"completedAt"`
	Answers     []Answer  `json:"answers"`
}

// AttemptDetail is the attempt preview page.
type AttemptDetail struct {
	AttemptID    uuid.UUID      `json:"attemptId"`
	Status       string         `json:"status"`
	StudentName  string         `json:"studentName"`
	StudentEmail string         `json:"studentEmail"`
	PaperTitle   string         `json:"paperTitle"`
	StartedAt    string         `json:"startedAt"`
	CompletedAt  string         `json:"completedAt"`
	Duration     string         `json:"duration"`
	OverallBand  *float64       `json:"overallBand"`
	Modules      []ModuleDetail `json:"modules"`
}

// GradeModuleDetail is the grading page for one module.
type GradeModuleDetail struct {
	AttemptID    uuid.UUID         `json:"attemptId"`
	PaperTitle   string            `json:"paperTitle"`
	StudentName  string            `json:"studentName"`
	StudentEmail string            `json:"studentEmail"`
	Module       ModuleDetail      `json:"module"`
	Decisions    []GradingDecision `json:"decisions"`
}
