package service

import (
	"churchhealth/internal/cache"
	"churchhealth/internal/model"
	"churchhealth/internal/survey"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
)

var ErrNotHydrated = errors.New("assessment state not hydrated")

// ChangeKind says which part of the state moved
type ChangeKind int

const (
	ChangeAnswers ChangeKind = iota
	ChangeReflections
	ChangeSection
	ChangeCleared
)

// StateChange is delivered to store listeners after a mutation
type StateChange struct {
	Kind           ChangeKind
	AnswerCount    int
	CurrentSection model.SectionID
}

// StateListener observes store mutations. Listeners run outside the store
// lock; a mutation made from inside a listener is applied but not re-announced.
type StateListener func(StateChange)

// AssessmentStore is the in-progress state of one respondent on one client:
// answers, reflections and the active section. Every mutation schedules a
// debounced write to the durable client cache.
type AssessmentStore struct {
	mu        sync.Mutex
	identity  model.Identity
	cache     cache.AssessmentCache
	clock     Clock
	persist   *Debouncer
	listeners []StateListener
	notifying bool

	// persistMu orders cache writes against ClearState's deletes; epoch
	// changes on every clear so a write copied before it is dropped
	persistMu sync.Mutex
	epoch     uint64

	hydrated       bool
	answers        model.AnswerMap
	reflections    model.ReflectionMap
	currentSection model.SectionID
	updatedAt      time.Time
}

// NewAssessmentStore creates an empty, unhydrated store for identity
func NewAssessmentStore(identity model.Identity, c cache.AssessmentCache, clock Clock, debounce time.Duration) *AssessmentStore {
	return &AssessmentStore{
		identity:       identity,
		cache:          c,
		clock:          clock,
		persist:        NewDebouncer(clock, debounce),
		answers:        model.AnswerMap{},
		reflections:    model.ReflectionMap{},
		currentSection: model.SectionWorship,
	}
}

// Identity returns the identity the store was built for
func (s *AssessmentStore) Identity() model.Identity {
	return s.identity
}

func (s *AssessmentStore) email() string {
	return strings.ToLower(s.identity.User.Email)
}

// Subscribe registers a listener for state changes
func (s *AssessmentStore) Subscribe(l StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Hydrate loads cached state for this identity exactly once. The cache entry
// is only trusted when the client's last user is this same respondent;
// otherwise stale entries are purged and the store starts empty. Cache
// failures are logged and the store starts empty.
func (s *AssessmentStore) Hydrate(ctx context.Context) {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	clientID, email := s.identity.ClientID, s.email()
	state := s.loadCached(ctx, clientID, email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return
	}
	if state != nil {
		s.answers = state.Answers
		s.reflections = state.Reflections
		if sid, ok := model.SectionByNumber(state.CurrentSection); ok {
			s.currentSection = sid
		}
		s.updatedAt = time.UnixMilli(state.LastUpdated)
	}
	s.hydrated = true
}

func (s *AssessmentStore) loadCached(ctx context.Context, clientID, email string) *model.CachedState {
	last, err := s.cache.LastUser(ctx, clientID)
	if err != nil {
		log.Printf("Failed to read last user for client %s: %v", clientID, err)
		return nil
	}

	if last == email {
		// keep the marker alive as long as the entry it vouches for
		if err := s.cache.SetLastUser(ctx, clientID, email); err != nil {
			log.Printf("Failed to refresh last user for client %s: %v", clientID, err)
		}
		state, err := s.cache.Load(ctx, clientID, email)
		if err != nil {
			log.Printf("Failed to load cached assessment for %s: %v", email, err)
			return nil
		}
		return state
	}

	// different respondent on this client: nothing cached may be reused
	if last != "" {
		if err := s.cache.Delete(ctx, clientID, last); err != nil {
			log.Printf("Failed to purge cached assessment for %s: %v", last, err)
		}
	}
	if err := s.cache.Delete(ctx, clientID, email); err != nil {
		log.Printf("Failed to purge cached assessment for %s: %v", email, err)
	}
	if err := s.cache.DeleteLegacy(ctx, clientID); err != nil {
		log.Printf("Failed to purge legacy cache for client %s: %v", clientID, err)
	}
	if err := s.cache.SetLastUser(ctx, clientID, email); err != nil {
		log.Printf("Failed to record last user for client %s: %v", clientID, err)
	}
	return nil
}

// Hydrated reports whether Hydrate has completed
func (s *AssessmentStore) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// SetAnswer records a score. Scores are not range-checked here; validation
// happens at submission.
func (s *AssessmentStore) SetAnswer(subQuestionID string, score int) error {
	return s.mutate(ChangeAnswers, func() {
		s.answers[subQuestionID] = score
	})
}

// SetReflection records free-text notes for a sub-question
func (s *AssessmentStore) SetReflection(subQuestionID, text string) error {
	return s.mutate(ChangeReflections, func() {
		s.reflections[subQuestionID] = text
	})
}

// SetCurrentSection moves the active section pointer
func (s *AssessmentStore) SetCurrentSection(section model.SectionID) error {
	if !section.Valid() {
		return survey.ErrUnknownSection
	}
	return s.mutate(ChangeSection, func() {
		s.currentSection = section
	})
}

func (s *AssessmentStore) mutate(kind ChangeKind, apply func()) error {
	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		return ErrNotHydrated
	}
	apply()
	s.updatedAt = s.clock.Now()
	s.persist.Trigger(s.writeCache)
	s.notifyLocked(StateChange{
		Kind:           kind,
		AnswerCount:    len(s.answers),
		CurrentSection: s.currentSection,
	})
	return nil
}

// notifyLocked is entered with s.mu held and returns with it released
func (s *AssessmentStore) notifyLocked(change StateChange) {
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true
	listeners := append([]StateListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(change)
	}

	s.mu.Lock()
	s.notifying = false
	s.mu.Unlock()
}

func (s *AssessmentStore) writeCache() {
	s.mu.Lock()
	state := &model.CachedState{
		Answers:        s.answers.Clone(),
		Reflections:    s.reflections.Clone(),
		CurrentSection: s.currentSection.Number(),
		LastUpdated:    s.updatedAt.UnixMilli(),
	}
	epoch := s.epoch
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.currentEpoch() != epoch {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Save(ctx, s.identity.ClientID, s.email(), state); err != nil {
		log.Printf("Failed to save assessment cache for %s: %v", s.email(), err)
	}
}

func (s *AssessmentStore) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Answers returns a copy of the current answers
func (s *AssessmentStore) Answers() model.AnswerMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// Reflections returns a copy of the current reflections
func (s *AssessmentStore) Reflections() model.ReflectionMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflections.Clone()
}

// Answer returns the score recorded for a sub-question
func (s *AssessmentStore) Answer(subQuestionID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[subQuestionID]
	return v, ok
}

// Reflection returns the notes recorded for a sub-question
func (s *AssessmentStore) Reflection(subQuestionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflections[subQuestionID]
}

func (s *AssessmentStore) CurrentSection() model.SectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSection
}

func (s *AssessmentStore) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// CheckCompletion measures the answers against the live schema
func (s *AssessmentStore) CheckCompletion(schema *model.QuestionsData) model.CompletionResult {
	return survey.CheckCompletion(schema, s.Answers())
}

// ClearState resets to an empty assessment on section 1, drops any pending
// cache write and purges this identity's cache entries. A write already in
// progress completes before the purge; one not yet started is skipped.
func (s *AssessmentStore) ClearState(ctx context.Context) error {
	s.persist.Cancel()

	s.mu.Lock()
	s.epoch++
	s.answers = model.AnswerMap{}
	s.reflections = model.ReflectionMap{}
	s.currentSection = model.SectionWorship
	s.updatedAt = s.clock.Now()
	s.notifyLocked(StateChange{Kind: ChangeCleared, CurrentSection: model.SectionWorship})

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	err := s.cache.Delete(ctx, s.identity.ClientID, s.email())
	if lerr := s.cache.DeleteLegacy(ctx, s.identity.ClientID); err == nil {
		err = lerr
	}
	return err
}

// Flush writes any pending cache update immediately
func (s *AssessmentStore) Flush() {
	s.persist.Flush()
}
