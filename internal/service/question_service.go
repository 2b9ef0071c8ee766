package service

import (
	"churchhealth/internal/cache"
	"churchhealth/internal/model"
	"churchhealth/internal/repository"
	"churchhealth/internal/survey"
	"context"
	"errors"
	"log"
	"sync"
)

var ErrNoQuestions = errors.New("question bank not found")

// QuestionService serves and edits the question bank
type QuestionService struct {
	repo  repository.QuestionRepo
	cache cache.QuestionCache

	mu      sync.RWMutex
	current *model.QuestionsData

	// edits are read-modify-write on the whole document
	editMu sync.Mutex
}

// NewQuestionService creates a new question service
func NewQuestionService(repo repository.QuestionRepo, c cache.QuestionCache) *QuestionService {
	return &QuestionService{
		repo:  repo,
		cache: c,
	}
}

// Get returns the current question bank, reading through the cache
func (s *QuestionService) Get(ctx context.Context) (*model.QuestionsData, error) {
	q, err := s.cache.Get(ctx)
	if err != nil {
		log.Printf("Failed to read question cache: %v", err)
	}
	if q == nil {
		q, err = s.repo.Get(ctx)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, ErrNoQuestions
		}
		if err := s.cache.Set(ctx, q); err != nil {
			log.Printf("Failed to cache question bank: %v", err)
		}
	}

	s.mu.Lock()
	s.current = q
	s.mu.Unlock()
	return q, nil
}

// Current returns the most recently loaded bank without I/O, or nil
func (s *QuestionService) Current() *model.QuestionsData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace validates and stores a whole new bank
func (s *QuestionService) Replace(ctx context.Context, q *model.QuestionsData) error {
	if err := survey.ValidateQuestions(q); err != nil {
		return err
	}
	if err := s.repo.Replace(ctx, q); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("Failed to invalidate question cache: %v", err)
	}

	s.mu.Lock()
	s.current = q
	s.mu.Unlock()
	log.Printf("Question bank replaced (%d sub-questions)", len(q.SubQuestionIDs()))
	return nil
}

// Edit applies one admin edit and stores the result
func (s *QuestionService) Edit(ctx context.Context, req survey.EditRequest) (*model.QuestionsData, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	q, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	edited, err := survey.ApplyEdit(q, req)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(ctx, edited); err != nil {
		return nil, err
	}
	return edited, nil
}

// Bootstrap stores defaults when no bank exists yet
func (s *QuestionService) Bootstrap(ctx context.Context, defaults *model.QuestionsData) error {
	existing, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	log.Println("No question bank found, storing defaults")
	return s.Replace(ctx, defaults)
}
