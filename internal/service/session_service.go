package service

import (
	"churchhealth/internal/cache"
	"churchhealth/internal/config"
	"churchhealth/internal/model"
	"churchhealth/internal/survey"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrSectionLocked   = errors.New("section is locked until it is reached or completed")
	ErrUnknownQuestion = errors.New("unknown sub-question")
)

// session is one respondent's live assessment on one client
type session struct {
	mu       sync.Mutex
	identity model.Identity
	store    *AssessmentStore
	nav      *survey.Navigator
	drafts   *DraftReconciler
	schemaAt time.Time

	// lastSeen is guarded by SessionService.mu
	lastSeen time.Time
}

// SessionService owns the live sessions, one per client id
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*session

	questions   *QuestionService
	cache       cache.AssessmentCache
	drafts      *DraftService
	submissions *SubmissionService
	clock       Clock
	delays      config.Debounce
	broadcaster Broadcaster
}

// NewSessionService creates a new session service
func NewSessionService(
	questions *QuestionService,
	c cache.AssessmentCache,
	drafts *DraftService,
	submissions *SubmissionService,
	clock Clock,
	delays config.Debounce,
) *SessionService {
	return &SessionService{
		sessions:    make(map[string]*session),
		questions:   questions,
		cache:       c,
		drafts:      drafts,
		submissions: submissions,
		clock:       clock,
		delays:      delays,
	}
}

// SetBroadcaster sets the broadcaster for session pushes
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func sameUser(a, b model.Identity) bool {
	return strings.EqualFold(a.User.Email, b.User.Email)
}

// Start opens (or resumes) the session for id. A different respondent on the
// same client replaces the previous session; the new store's hydration then
// discards the previous respondent's cached answers.
func (s *SessionService) Start(ctx context.Context, id model.Identity) (*model.SessionView, error) {
	if err := survey.ValidateUserInfo(id.User); err != nil {
		return nil, err
	}
	sess, schema, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return s.buildView(sess, schema), nil
}

// acquire returns the locked session for id, opening it when needed
func (s *SessionService) acquire(ctx context.Context, id model.Identity) (*session, *model.QuestionsData, error) {
	schema, err := s.questions.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[id.ClientID]
	if ok && !sameUser(sess.identity, id) {
		delete(s.sessions, id.ClientID)
		s.mu.Unlock()
		log.Printf("Client %s switched from %s to %s", id.ClientID, sess.identity.User.Email, id.User.Email)
		s.close(sess)
		s.mu.Lock()
		sess, ok = s.sessions[id.ClientID]
	}
	if !ok {
		sess = s.open(ctx, id, schema)
		s.sessions[id.ClientID] = sess
	}
	sess.lastSeen = s.clock.Now()
	s.mu.Unlock()

	sess.mu.Lock()
	if !schema.UpdatedAt.Equal(sess.schemaAt) {
		sess.nav.Reset(survey.BuildSteps(schema))
		sess.schemaAt = schema.UpdatedAt
	}
	return sess, schema, nil
}

func (s *SessionService) open(ctx context.Context, id model.Identity, schema *model.QuestionsData) *session {
	store := NewAssessmentStore(id, s.cache, s.clock, s.delays.Cache)
	store.Hydrate(ctx)

	nav := survey.NewNavigator(survey.BuildSteps(schema))
	// resume at the start of the section the respondent was working on
	cur := store.CurrentSection()
	nav.JumpToSection(cur, cur, nil)

	sess := &session{
		identity: id,
		store:    store,
		nav:      nav,
		drafts:   NewDraftReconciler(store, s.drafts, s.questions.Current, s.clock, s.delays),
		schemaAt: schema.UpdatedAt,
	}
	log.Printf("Session opened for %s on client %s", id.User.Email, id.ClientID)
	return sess
}

// close stops a session, keeping whatever it had not yet written
func (s *SessionService) close(sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.store.Flush()
	sess.drafts.Flush()
}

// Answer records a score for a sub-question
func (s *SessionService) Answer(ctx context.Context, id model.Identity, subQuestionID string, score int) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *session, schema *model.QuestionsData) error {
		if sq, _, _ := schema.FindSubQuestion(subQuestionID); sq == nil {
			return ErrUnknownQuestion
		}
		return sess.store.SetAnswer(subQuestionID, score)
	})
}

// Reflect records reflection notes for a sub-question
func (s *SessionService) Reflect(ctx context.Context, id model.Identity, subQuestionID, text string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *session, schema *model.QuestionsData) error {
		if sq, _, _ := schema.FindSubQuestion(subQuestionID); sq == nil {
			return ErrUnknownQuestion
		}
		return sess.store.SetReflection(subQuestionID, text)
	})
}

// Next advances one step; it is a no-op on the last step
func (s *SessionService) Next(ctx context.Context, id model.Identity) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *session, _ *model.QuestionsData) error {
		sess.nav.Next()
		return s.followCursor(sess)
	})
}

// Prev retreats one step; it is a no-op on the first step
func (s *SessionService) Prev(ctx context.Context, id model.Identity) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *session, _ *model.QuestionsData) error {
		sess.nav.Prev()
		return s.followCursor(sess)
	})
}

// JumpToQuestion moves to a sub-question's question step
func (s *SessionService) JumpToQuestion(ctx context.Context, id model.Identity, subQuestionID string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(sess *session, _ *model.QuestionsData) error {
		if !sess.nav.JumpToQuestion(subQuestionID) {
			return ErrUnknownQuestion
		}
		return s.followCursor(sess)
	})
}

// JumpToSection moves to the first question of a section. Only the active
// section and completed sections can be entered this way.
func (s *SessionService) JumpToSection(ctx context.Context, id model.Identity, section model.SectionID) (*model.SessionView, error) {
	if !section.Valid() {
		return nil, survey.ErrUnknownSection
	}
	return s.mutate(ctx, id, func(sess *session, schema *model.QuestionsData) error {
		completed := survey.CompletedSections(schema, sess.store.Answers())
		if !sess.nav.JumpToSection(section, sess.store.CurrentSection(), completed) {
			return ErrSectionLocked
		}
		return s.followCursor(sess)
	})
}

// followCursor moves the store's section pointer to the section of the step
// under the cursor
func (s *SessionService) followCursor(sess *session) error {
	step, ok := sess.nav.Current()
	if !ok {
		return nil
	}
	sid, ok := survey.SectionForQuestion(step.SubQuestionID)
	if !ok || sid == sess.store.CurrentSection() {
		return nil
	}
	return sess.store.SetCurrentSection(sid)
}

func (s *SessionService) mutate(ctx context.Context, id model.Identity, apply func(*session, *model.QuestionsData) error) (*model.SessionView, error) {
	sess, schema, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(sess, schema); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	view := s.buildView(sess, schema)
	sess.mu.Unlock()

	s.broadcast(id.ClientID, MsgSessionUpdated, view)
	return view, nil
}

// View returns the current session view
func (s *SessionService) View(ctx context.Context, id model.Identity) (*model.SessionView, error) {
	sess, schema, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return s.buildView(sess, schema), nil
}

// Review lists every sub-question with its answer and reflection
func (s *SessionService) Review(ctx context.Context, id model.Identity) ([]model.ReviewItem, error) {
	sess, schema, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return survey.ReviewItems(schema, sess.store.Answers(), sess.store.Reflections()), nil
}

// Submit finalizes the assessment. On success the session starts over empty.
func (s *SessionService) Submit(ctx context.Context, id model.Identity) (*model.SubmitResponse, error) {
	sess, schema, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	// no draft write may land after the draft is retired
	sess.drafts.Stop()
	resp, err := s.submissions.Submit(ctx, sess.identity.User, sess.store.Answers(), sess.store.Reflections(), schema)
	if err != nil {
		sess.drafts.Resume()
		return nil, err
	}

	if err := sess.store.ClearState(ctx); err != nil {
		log.Printf("Failed to clear cached assessment for %s: %v", id.User.Email, err)
	}
	sess.drafts.Resume()
	sess.nav = survey.NewNavigator(survey.BuildSteps(schema))

	s.broadcast(id.ClientID, MsgAssessmentSubmitted, resp)
	return resp, nil
}

// End closes the client's session after writing anything pending
func (s *SessionService) End(ctx context.Context, id model.Identity) {
	s.mu.Lock()
	sess, ok := s.sessions[id.ClientID]
	if ok {
		delete(s.sessions, id.ClientID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.close(sess)
	s.broadcast(id.ClientID, MsgSessionEnded, map[string]string{"clientId": id.ClientID})
	if s.broadcaster != nil {
		s.broadcaster.DisconnectClient(id.ClientID)
	}
	log.Printf("Session ended for %s on client %s", id.User.Email, id.ClientID)
}

// FlushAll writes every pending cache update and draft, e.g. on shutdown
func (s *SessionService) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, sess := range sessions {
		sess := sess
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.close(sess)
			return nil
		})
	}
	return g.Wait()
}

// EvictIdle writes out and drops every session untouched for longer than
// maxIdle. A session used again while it is being written out stays. The
// respondent's next request resumes from the client cache.
func (s *SessionService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	idle := make(map[string]*session)
	for clientID, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle[clientID] = sess
		}
	}
	s.mu.Unlock()

	evicted := 0
	for clientID, sess := range idle {
		seen := s.lastSeenOf(sess)
		s.close(sess)

		s.mu.Lock()
		if s.sessions[clientID] == sess && sess.lastSeen.Equal(seen) {
			delete(s.sessions, clientID)
			evicted++
		}
		s.mu.Unlock()
	}
	if evicted > 0 {
		log.Printf("Evicted %d idle sessions", evicted)
	}
	return evicted
}

func (s *SessionService) lastSeenOf(sess *session) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.lastSeen
}

// RunEvictor calls EvictIdle every interval until ctx is done
func (s *SessionService) RunEvictor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(maxIdle)
		}
	}
}

// ActiveSessions returns the number of live sessions
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) buildView(sess *session, schema *model.QuestionsData) *model.SessionView {
	answers := sess.store.Answers()
	current := sess.store.CurrentSection()
	completion := survey.CheckCompletion(schema, answers)

	view := &model.SessionView{
		User:           sess.identity.User,
		CurrentSection: current,
		TotalSteps:     len(sess.nav.Steps()),
		Sections:       survey.SectionStatuses(schema, answers, current, sess.nav.Index(), sess.nav.Steps()),
		Completion:     completion,
		IsComplete:     completion.IsComplete,
		UpdatedAt:      sess.store.UpdatedAt(),
	}

	step, ok := sess.nav.Current()
	if !ok {
		return view
	}
	sq, sid, p := schema.FindSubQuestion(step.SubQuestionID)
	if sq == nil {
		return view
	}
	q := *sq
	sv := &model.StepView{
		Step:       step,
		Section:    sid,
		PointID:    p.ID,
		PointTitle: p.Title,
		Question:   &q,
		Reflection: sess.store.Reflection(step.SubQuestionID),
	}
	if v, ok := answers[step.SubQuestionID]; ok {
		sv.Answer = &v
	}
	view.Current = sv
	return view
}

func (s *SessionService) broadcast(clientID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToClient(clientID, msgType, payload)
	}
}
