package convert

import (
	"github.com/and161185/supermock-admin/internal/model"
)

// ToAttemptReviews converts get_center_reviews rows. A nil input yields an empty slice.
func ToAttemptReviews(rows []model.RawAttemptReview) []model.AttemptReview {
	out := make([]model.AttemptReview, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToAttemptReview(r))
	}
	return out
}

// ToAttemptReview converts a single review row.
func ToAttemptReview(r model.RawAttemptReview) model.AttemptReview {
	mods := make([]model.ModuleSummary, 0, len(r.Modules))
	for _, m := range r.Modules {
		mods = append(mods, model.ModuleSummary{
			ID:        m.AttemptModuleID,
			Type:      orDefault(m.ModuleType, UnknownStatus),
			Status:    orDefault(m.Status, UnknownStatus),
			BandScore: m.BandScore,
			Duration:  FormatDuration(m.TimeSpentSeconds),
		})
	}
	return model.AttemptReview{
		AttemptID:    r.AttemptID,
		StudentName:  orDefault(r.StudentName, DefaultStudent),
		StudentEmail: orDefault(r.StudentEmail, ""),
		PaperTitle:   orDefault(r.PaperTitle, ""),
		Status:       orDefault(r.Status, UnknownStatus),
		StartedAt:    FormatDate(r.StartedAt),
		CompletedAt:  FormatDate(r.CompletedAt),
		Duration:     FormatDuration(r.TimeSpentSeconds),
		OverallBand:  r.OverallBand,
		Modules:      mods,
	}
}

// ToAttemptDetail converts get_attempt_preview output.
func ToAttemptDetail(r model.RawAttemptDetail) model.AttemptDetail {
	name, email := student(r.Student)
	mods := make([]model.ModuleDetail, 0, len(r.Modules))
	for _, m := range r.Modules {
		mods = append(mods, ToModuleDetail(m))
	}
	return model.AttemptDetail{
		AttemptID:    r.AttemptID,
		Status:       orDefault(r.Status, UnknownStatus),
		StudentName:  name,
		StudentEmail: email,
		PaperTitle:   orDefault(r.PaperTitle, ""),
		StartedAt:    FormatDate(r.StartedAt),
		CompletedAt:  FormatDate(r.CompletedAt),
		Duration:     FormatDurationDetailed(r.TimeSpentSeconds),
		OverallBand:  r.OverallBand,
		Modules:      mods,
	}
}

// ToGradeModuleDetail converts get_grading_data output. Decisions are left for the caller.
func ToGradeModuleDetail(r model.RawGradingData) model.GradeModuleDetail {
	name, email := student(r.Student)
	return model.GradeModuleDetail{
		AttemptID:    r.AttemptID,
		PaperTitle:   orDefault(r.PaperTitle, ""),
		StudentName:  name,
		StudentEmail: email,
		Module:       ToModuleDetail(r.Module),
		Decisions:    []model.GradingDecision{},
	}
}

// ToModuleDetail converts a module with answers.
func ToModuleDetail(m model.RawModuleDetail) model.ModuleDetail {
	answers := make([]model.Answer, 0, len(m.Answers))
	for _, a := range m.Answers {
		answers = append(answers, model.Answer{
			ID:            a.ID,
			QuestionRef:   orDefault(a.QuestionRef, ""),
			QuestionType:  orDefault(a.QuestionType, ""),
			QuestionText:  orDefault(a.QuestionText, ""),
			StudentAnswer: orDefault(a.StudentAnswer, ""),
			CorrectAnswer: orDefault(a.CorrectAnswer, ""),
			IsCorrect:     a.IsCorrect,
			MarksAwarded:  a.MarksAwarded,
			MaxMarks:      a.MaxMarks,
		})
	}
	return model.ModuleDetail{
		ID:          m.AttemptModuleID,
		Type:        orDefault(m.ModuleType, UnknownStatus),
		Status:      orDefault(m.Status, UnknownStatus),
		Score:       m.Score,
		BandScore:   m.BandScore,
		Duration:    FormatDurationDetailed(m.TimeSpentSeconds),
		Feedback:    orDefault(m.Feedback, ""),
		CompletedAt: FormatDate(m.CompletedAt),
		Answers:     answers,
	}
}

// ToGradeAnswers builds the save_grades answers array.
func ToGradeAnswers(ds []model.GradingDecision) []model.GradeAnswer {
	out := make([]model.GradeAnswer, 0, len(ds))
	for _, d := range ds {
		out = append(out, model.GradeAnswer{ID: d.AnswerID, IsCorrect: d.IsCorrect, MarksAwarded: d.MarksAwarded})
	}
	return out
}

func student(s *model.RawStudent) (name, email string) {
	if s == nil {
		return DefaultStudent, ""
	}
	return orDefault(s.Name, DefaultStudent), orDefault(s.Email, "")
}
