package service

import (
	"churchhealth/internal/config"
	"churchhealth/internal/model"
	"churchhealth/internal/repository"
	"churchhealth/internal/survey"
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// DraftService writes partial assessments to the remote store so they
// survive the loss of the client cache
type DraftService struct {
	repo repository.AssessmentRepo
}

// NewDraftService creates a new draft service
func NewDraftService(repo repository.AssessmentRepo) *DraftService {
	return &DraftService{repo: repo}
}

// BuildDraft assembles the draft for the given answers. Scores are attached
// only when every point and section lands in range, which in practice means
// every point has at least one answer.
func BuildDraft(id model.Identity, answers model.AnswerMap, reflections model.ReflectionMap, schema *model.QuestionsData) *model.Draft {
	nested := survey.Unflatten(answers, schema)
	draft := &model.Draft{
		Email:           strings.ToLower(id.User.Email),
		Name:            id.User.Name,
		ChurchName:      id.User.ChurchName,
		Assessment:      nested,
		Answers:         answers,
		ReflectionNotes: reflections,
	}
	scores := survey.CalculateAllScores(nested)
	if survey.ValidateScores(scores) == nil {
		draft.Scores = &scores
	}
	return draft
}

// SaveDraft upserts the respondent's single draft
func (s *DraftService) SaveDraft(ctx context.Context, id model.Identity, answers model.AnswerMap, reflections model.ReflectionMap, schema *model.QuestionsData) error {
	draft := BuildDraft(id, answers, reflections, schema)
	rec := &model.AssessmentRecord{
		UserName:        draft.Name,
		UserEmail:       draft.Email,
		ChurchName:      draft.ChurchName,
		Status:          model.StatusDraft,
		Assessment:      draft.Assessment,
		Answers:         draft.Answers,
		ReflectionNotes: draft.ReflectionNotes,
	}
	if draft.Scores != nil {
		total := survey.TotalScore(*draft.Scores)
		rec.ScoresJSON = draft.Scores.Points
		rec.SectionScores = draft.Scores.Sections
		rec.TotalScore = &total
	}
	return s.repo.UpsertDraft(ctx, rec)
}

// DraftReconciler mirrors one store into the remote draft. Answer and
// reflection edits are coalesced over a longer window than section moves.
// Save failures are logged and never reach the respondent.
type DraftReconciler struct {
	store   *AssessmentStore
	drafts  *DraftService
	schema  func() *model.QuestionsData
	edits   *Debouncer
	section *Debouncer

	// mu is held for the whole of a save, so Stop returns only once no
	// save is running
	mu      sync.Mutex
	stopped bool
}

// NewDraftReconciler subscribes a reconciler to store
func NewDraftReconciler(store *AssessmentStore, drafts *DraftService, schema func() *model.QuestionsData, clock Clock, delays config.Debounce) *DraftReconciler {
	r := &DraftReconciler{
		store:   store,
		drafts:  drafts,
		schema:  schema,
		edits:   NewDebouncer(clock, delays.Draft),
		section: NewDebouncer(clock, delays.SectionChange),
	}
	store.Subscribe(r.onChange)
	return r
}

func (r *DraftReconciler) onChange(c StateChange) {
	switch c.Kind {
	case ChangeAnswers, ChangeReflections:
		if c.AnswerCount > 0 {
			r.edits.Trigger(r.save)
		}
	case ChangeSection:
		if c.AnswerCount > 0 {
			r.section.Trigger(r.save)
		}
	case ChangeCleared:
		r.Stop()
	}
}

func (r *DraftReconciler) save() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	answers := r.store.Answers()
	if len(answers) == 0 {
		return
	}
	schema := r.schema()
	if schema == nil {
		log.Printf("Skipping draft save for %s: no question bank", r.store.Identity().User.Email)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.drafts.SaveDraft(ctx, r.store.Identity(), answers, r.store.Reflections(), schema); err != nil {
		log.Printf("Failed to save draft for %s: %v", r.store.Identity().User.Email, err)
	}
}

// Pending reports whether a draft save is scheduled
func (r *DraftReconciler) Pending() bool {
	return r.edits.Pending() || r.section.Pending()
}

// Flush saves now if a save is scheduled
func (r *DraftReconciler) Flush() {
	pending := r.Pending()
	r.edits.Cancel()
	r.section.Cancel()
	if pending {
		r.save()
	}
}

// Stop cancels both pending saves, waits for a running one to finish and
// refuses further saves until Resume
func (r *DraftReconciler) Stop() {
	r.edits.Cancel()
	r.section.Cancel()

	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

// Resume allows saves again after Stop and reschedules one when the store
// still holds answers
func (r *DraftReconciler) Resume() {
	r.mu.Lock()
	r.stopped = false
	r.mu.Unlock()

	if len(r.store.Answers()) > 0 {
		r.edits.Trigger(r.save)
	}
}
