package service

import (
	"churchhealth/internal/model"
	"churchhealth/internal/survey"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.done
	t.done = true
	return active
}

// Advance moves time forward and runs due timers in deadline order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

type fakeAssessmentCache struct {
	mu       sync.Mutex
	entries  map[string]*model.CachedState
	lastUser map[string]string
	legacy   map[string]bool
	saves    int
	failLoad error

	lastUserWrites int

	// set by holdSaves: Save signals saveStarted and waits on releaseSave
	saveStarted chan struct{}
	releaseSave chan struct{}
}

func newFakeAssessmentCache() *fakeAssessmentCache {
	return &fakeAssessmentCache{
		entries:  make(map[string]*model.CachedState),
		lastUser: make(map[string]string),
		legacy:   make(map[string]bool),
	}
}

func cacheKey(clientID, email string) string {
	return clientID + "|" + strings.ToLower(email)
}

func (c *fakeAssessmentCache) Load(ctx context.Context, clientID, email string) (*model.CachedState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failLoad != nil {
		return nil, c.failLoad
	}
	return c.entries[cacheKey(clientID, email)], nil
}

// holdSaves makes the next Save calls block until released
func (c *fakeAssessmentCache) holdSaves() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveStarted = make(chan struct{}, 1)
	c.releaseSave = make(chan struct{})
}

func (c *fakeAssessmentCache) Save(ctx context.Context, clientID, email string, state *model.CachedState) error {
	c.mu.Lock()
	started, release := c.saveStarted, c.releaseSave
	c.mu.Unlock()
	if release != nil {
		started <- struct{}{}
		<-release
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.entries[cacheKey(clientID, email)] = state
	return nil
}

func (c *fakeAssessmentCache) Delete(ctx context.Context, clientID, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(clientID, email))
	return nil
}

func (c *fakeAssessmentCache) DeleteLegacy(ctx context.Context, clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.legacy, clientID)
	return nil
}

func (c *fakeAssessmentCache) LastUser(ctx context.Context, clientID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUser[clientID], nil
}

func (c *fakeAssessmentCache) SetLastUser(ctx context.Context, clientID, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUserWrites++
	c.lastUser[clientID] = strings.ToLower(email)
	return nil
}

func (c *fakeAssessmentCache) entry(clientID, email string) *model.CachedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[cacheKey(clientID, email)]
}

func (c *fakeAssessmentCache) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

type fakeAssessmentRepo struct {
	mu          sync.Mutex
	drafts      map[string]*model.AssessmentRecord
	submissions []*model.AssessmentRecord
	upserts     int
	retired     []string
	failUpsert  error

	// set by holdUpserts: UpsertDraft signals upsertStarted and waits on releaseUpsert
	upsertStarted chan struct{}
	releaseUpsert chan struct{}
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{drafts: make(map[string]*model.AssessmentRecord)}
}

func (r *fakeAssessmentRepo) EnsureIndexes(ctx context.Context) {}

// holdUpserts makes the next UpsertDraft calls block until released
func (r *fakeAssessmentRepo) holdUpserts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertStarted = make(chan struct{}, 1)
	r.releaseUpsert = make(chan struct{})
}

func (r *fakeAssessmentRepo) UpsertDraft(ctx context.Context, rec *model.AssessmentRecord) error {
	r.mu.Lock()
	started, release := r.upsertStarted, r.releaseUpsert
	r.mu.Unlock()
	if release != nil {
		started <- struct{}{}
		<-release
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.failUpsert != nil {
		return r.failUpsert
	}
	cp := *rec
	r.drafts[rec.UserEmail] = &cp
	return nil
}

func (r *fakeAssessmentRepo) GetDraft(ctx context.Context, email string) (*model.AssessmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[email], nil
}

func (r *fakeAssessmentRepo) RetireDraft(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, email)
	r.retired = append(r.retired, email)
	return nil
}

func (r *fakeAssessmentRepo) InsertSubmission(ctx context.Context, rec *model.AssessmentRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = "sub-" + rec.UserEmail
	rec.Status = model.StatusSubmitted
	r.submissions = append(r.submissions, rec)
	return rec.ID, nil
}

func (r *fakeAssessmentRepo) GetByID(ctx context.Context, id string) (*model.AssessmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.submissions {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeAssessmentRepo) List(ctx context.Context, limit int64) ([]*model.AssessmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.AssessmentRecord(nil), r.submissions...), nil
}

func (r *fakeAssessmentRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

func (r *fakeAssessmentRepo) submissionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submissions)
}

func (r *fakeAssessmentRepo) draft(email string) *model.AssessmentRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[email]
}

type fakeQuestionRepo struct {
	mu       sync.Mutex
	q        *model.QuestionsData
	replaces int
}

func (r *fakeQuestionRepo) Get(ctx context.Context) (*model.QuestionsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.q == nil {
		return nil, nil
	}
	return r.q.Clone(), nil
}

func (r *fakeQuestionRepo) Replace(ctx context.Context, q *model.QuestionsData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaces++
	q.UpdatedAt = q.UpdatedAt.Add(time.Second)
	r.q = q.Clone()
	return nil
}

type fakeQuestionCache struct {
	mu   sync.Mutex
	q    *model.QuestionsData
	fail bool
}

func (c *fakeQuestionCache) Get(ctx context.Context) (*model.QuestionsData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errors.New("redis down")
	}
	return c.q, nil
}

func (c *fakeQuestionCache) Set(ctx context.Context, q *model.QuestionsData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.q = q
	return nil
}

func (c *fakeQuestionCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.q = nil
	return nil
}

type broadcastRecord struct {
	clientID string
	msgType  string
	payload  interface{}
}

type fakeBroadcaster struct {
	mu           sync.Mutex
	sent         []broadcastRecord
	disconnected []string
}

func (b *fakeBroadcaster) BroadcastToClient(clientID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcastRecord{clientID, msgType, payload})
}

func (b *fakeBroadcaster) DisconnectClient(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, clientID)
}

func (b *fakeBroadcaster) last() broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

var (
	ann = model.Identity{
		ClientID: "client-1",
		User:     model.UserInfo{Name: "Ann", Email: "ann@example.org", ChurchName: "Grace Church"},
	}
	bob = model.Identity{
		ClientID: "client-1",
		User:     model.UserInfo{Name: "Bob", Email: "bob@example.org", ChurchName: "Hope Church"},
	}
)

func testDelays() (cacheDelay, draftDelay, sectionDelay time.Duration) {
	return 500 * time.Millisecond, 3 * time.Second, time.Second
}

// fillAll answers every sub-question of the default bank with v
func fillAll(v int) model.AnswerMap {
	answers := model.AnswerMap{}
	for _, id := range survey.DefaultQuestions().SubQuestionIDs() {
		answers[id] = v
	}
	return answers
}
