package service

import (
	"churchhealth/internal/model"
	"churchhealth/internal/repository"
	"churchhealth/internal/survey"
	"context"
	"errors"
	"log"
	"strings"
)

var ErrAssessmentNotFound = errors.New("assessment not found")

// SubmissionService finalizes assessments and lists them for admins
type SubmissionService struct {
	repo repository.AssessmentRepo
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(repo repository.AssessmentRepo) *SubmissionService {
	return &SubmissionService{repo: repo}
}

// BuildSubmission validates the answers against schema and scores them
func BuildSubmission(user model.UserInfo, answers model.AnswerMap, reflections model.ReflectionMap, schema *model.QuestionsData) (*model.Submission, error) {
	if err := survey.ValidateUserInfo(user); err != nil {
		return nil, err
	}
	nested := survey.Unflatten(answers, schema)
	if err := survey.ValidateAnswers(nested, schema); err != nil {
		return nil, err
	}
	scores := survey.CalculateAllScores(nested)
	if err := survey.ValidateScores(scores); err != nil {
		return nil, err
	}

	user.Email = strings.ToLower(user.Email)
	return &model.Submission{
		UserInfo:        user,
		Assessment:      nested,
		Answers:         survey.Flatten(nested, schema),
		Scores:          scores,
		ReflectionNotes: reflections,
	}, nil
}

// Submit validates, scores and stores a final assessment, then retires the
// respondent's draft
func (s *SubmissionService) Submit(ctx context.Context, user model.UserInfo, answers model.AnswerMap, reflections model.ReflectionMap, schema *model.QuestionsData) (*model.SubmitResponse, error) {
	sub, err := BuildSubmission(user, answers, reflections, schema)
	if err != nil {
		return nil, err
	}

	total := survey.TotalScore(sub.Scores)
	rec := &model.AssessmentRecord{
		UserName:        sub.Name,
		UserEmail:       sub.Email,
		ChurchName:      sub.ChurchName,
		TotalScore:      &total,
		ScoresJSON:      sub.Scores.Points,
		SectionScores:   sub.Scores.Sections,
		Assessment:      sub.Assessment,
		Answers:         sub.Answers,
		ReflectionNotes: sub.ReflectionNotes,
	}
	id, err := s.repo.InsertSubmission(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RetireDraft(ctx, sub.Email); err != nil {
		log.Printf("Failed to retire draft for %s: %v", sub.Email, err)
	}

	log.Printf("Assessment %s submitted by %s (total %.2f)", id, sub.Email, total)
	return &model.SubmitResponse{
		ID:         id,
		Scores:     sub.Scores,
		TotalScore: total,
	}, nil
}

// List returns the newest submissions
func (s *SubmissionService) List(ctx context.Context, limit int64) ([]*model.AssessmentRecord, error) {
	return s.repo.List(ctx, limit)
}

// Get returns one stored assessment
func (s *SubmissionService) Get(ctx context.Context, id string) (*model.AssessmentRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrAssessmentNotFound
	}
	return rec, nil
}
