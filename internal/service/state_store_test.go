package service

import (
	"churchhealth/internal/model"
	"churchhealth/internal/survey"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(id model.Identity, c *fakeAssessmentCache, clock *fakeClock) *AssessmentStore {
	delay, _, _ := testDelays()
	return NewAssessmentStore(id, c, clock, delay)
}

func TestAssessmentStore_NotHydrated(t *testing.T) {
	s := newTestStore(ann, newFakeAssessmentCache(), newFakeClock())

	assert.ErrorIs(t, s.SetAnswer("1.1", 3), ErrNotHydrated)
	assert.ErrorIs(t, s.SetReflection("1.1", "x"), ErrNotHydrated)
	assert.ErrorIs(t, s.SetCurrentSection(model.SectionMission), ErrNotHydrated)
}

func TestAssessmentStore_HydrateSameUser(t *testing.T) {
	c := newFakeAssessmentCache()
	c.lastUser[ann.ClientID] = "ann@example.org"
	c.entries[cacheKey(ann.ClientID, "ann@example.org")] = &model.CachedState{
		Answers:        model.AnswerMap{"1.1": 4, "1.2": 2},
		Reflections:    model.ReflectionMap{"1.3": "prayer"},
		CurrentSection: 2,
		LastUpdated:    1700000000000,
	}
	s := newTestStore(ann, c, newFakeClock())

	s.Hydrate(context.Background())

	require.True(t, s.Hydrated())
	assert.Equal(t, model.AnswerMap{"1.1": 4, "1.2": 2}, s.Answers())
	assert.Equal(t, "prayer", s.Reflection("1.3"))
	assert.Equal(t, model.SectionDiscipleship, s.CurrentSection())
}

func TestAssessmentStore_HydrateSameUserRefreshesLastUser(t *testing.T) {
	c := newFakeAssessmentCache()
	c.lastUser[ann.ClientID] = "ann@example.org"
	c.entries[cacheKey(ann.ClientID, "ann@example.org")] = &model.CachedState{
		Answers: model.AnswerMap{"1.1": 4}, Reflections: model.ReflectionMap{}, CurrentSection: 1,
	}
	s := newTestStore(ann, c, newFakeClock())

	s.Hydrate(context.Background())

	assert.Equal(t, 1, c.lastUserWrites)
	assert.Equal(t, model.AnswerMap{"1.1": 4}, s.Answers())
}

func TestAssessmentStore_HydrateDifferentUserDiscardsStale(t *testing.T) {
	c := newFakeAssessmentCache()
	c.lastUser[ann.ClientID] = "bob@example.org"
	c.entries[cacheKey(ann.ClientID, "bob@example.org")] = &model.CachedState{
		Answers: model.AnswerMap{"1.1": 1}, Reflections: model.ReflectionMap{}, CurrentSection: 3,
	}
	c.entries[cacheKey(ann.ClientID, "ann@example.org")] = &model.CachedState{
		Answers: model.AnswerMap{"9.9": 5}, Reflections: model.ReflectionMap{}, CurrentSection: 2,
	}
	c.legacy[ann.ClientID] = true
	s := newTestStore(ann, c, newFakeClock())

	s.Hydrate(context.Background())

	assert.Empty(t, s.Answers())
	assert.Equal(t, model.SectionWorship, s.CurrentSection())
	assert.Nil(t, c.entry(ann.ClientID, "bob@example.org"))
	assert.Nil(t, c.entry(ann.ClientID, "ann@example.org"))
	assert.False(t, c.legacy[ann.ClientID])
	assert.Equal(t, "ann@example.org", c.lastUser[ann.ClientID])
}

func TestAssessmentStore_HydrateOnce(t *testing.T) {
	c := newFakeAssessmentCache()
	s := newTestStore(ann, c, newFakeClock())
	s.Hydrate(context.Background())
	require.NoError(t, s.SetAnswer("1.1", 5))

	c.lastUser[ann.ClientID] = "ann@example.org"
	c.entries[cacheKey(ann.ClientID, "ann@example.org")] = &model.CachedState{
		Answers: model.AnswerMap{}, Reflections: model.ReflectionMap{}, CurrentSection: 3,
	}
	s.Hydrate(context.Background())

	assert.Equal(t, model.AnswerMap{"1.1": 5}, s.Answers(), "second hydrate is a no-op")
}

func TestAssessmentStore_CacheFailureStartsEmpty(t *testing.T) {
	c := newFakeAssessmentCache()
	c.lastUser[ann.ClientID] = "ann@example.org"
	c.failLoad = assert.AnError
	s := newTestStore(ann, c, newFakeClock())

	s.Hydrate(context.Background())

	assert.True(t, s.Hydrated())
	assert.Empty(t, s.Answers())
}

func TestAssessmentStore_DebouncedPersistence(t *testing.T) {
	c := newFakeAssessmentCache()
	clock := newFakeClock()
	s := newTestStore(ann, c, clock)
	s.Hydrate(context.Background())

	require.NoError(t, s.SetAnswer("1.1", 3))
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, s.SetAnswer("1.2", 7)) // out of range is accepted here
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, s.SetCurrentSection(model.SectionDiscipleship))

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 0, c.saveCount())

	clock.Advance(100 * time.Millisecond)
	require.Equal(t, 1, c.saveCount())
	saved := c.entry(ann.ClientID, ann.User.Email)
	require.NotNil(t, saved)
	assert.Equal(t, model.AnswerMap{"1.1": 3, "1.2": 7}, saved.Answers)
	assert.Equal(t, 2, saved.CurrentSection)
	assert.Equal(t, clock.Now().Add(-500*time.Millisecond).UnixMilli(), saved.LastUpdated)
}

func TestAssessmentStore_ClearSuppressesPendingWrite(t *testing.T) {
	c := newFakeAssessmentCache()
	clock := newFakeClock()
	s := newTestStore(ann, c, clock)
	s.Hydrate(context.Background())

	require.NoError(t, s.SetAnswer("1.1", 3))
	require.NoError(t, s.SetCurrentSection(model.SectionMission))
	require.NoError(t, s.ClearState(context.Background()))
	clock.Advance(time.Second)

	assert.Equal(t, 0, c.saveCount())
	assert.Nil(t, c.entry(ann.ClientID, ann.User.Email))
	assert.Empty(t, s.Answers())
	assert.Equal(t, model.SectionWorship, s.CurrentSection())
}

func TestAssessmentStore_ClearWaitsForWriteInProgress(t *testing.T) {
	c := newFakeAssessmentCache()
	clock := newFakeClock()
	s := newTestStore(ann, c, clock)
	s.Hydrate(context.Background())
	require.NoError(t, s.SetAnswer("1.1", 4))

	c.holdSaves()
	fired := make(chan struct{})
	go func() {
		clock.Advance(time.Second)
		close(fired)
	}()
	<-c.saveStarted

	cleared := make(chan error, 1)
	go func() { cleared <- s.ClearState(context.Background()) }()

	select {
	case <-cleared:
		t.Fatal("clear finished while a cache write was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(c.releaseSave)
	select {
	case err := <-cleared:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("clear never finished")
	}
	<-fired

	assert.Equal(t, 1, c.saveCount())
	assert.Nil(t, c.entry(ann.ClientID, ann.User.Email), "cleared key must stay empty")
	assert.Empty(t, s.Answers())
}

func TestAssessmentStore_Flush(t *testing.T) {
	c := newFakeAssessmentCache()
	s := newTestStore(ann, c, newFakeClock())
	s.Hydrate(context.Background())

	require.NoError(t, s.SetReflection("1.3", "notes"))
	s.Flush()

	require.Equal(t, 1, c.saveCount())
	assert.Equal(t, "notes", c.entry(ann.ClientID, ann.User.Email).Reflections["1.3"])
}

func TestAssessmentStore_ListenerReentrancy(t *testing.T) {
	s := newTestStore(ann, newFakeAssessmentCache(), newFakeClock())
	s.Hydrate(context.Background())

	var changes []StateChange
	s.Subscribe(func(c StateChange) {
		changes = append(changes, c)
		if c.Kind == ChangeAnswers {
			// nested mutation from a listener
			require.NoError(t, s.SetReflection("1.1", "auto"))
		}
	})

	require.NoError(t, s.SetAnswer("1.1", 4))

	require.Len(t, changes, 1)
	assert.Equal(t, ChangeAnswers, changes[0].Kind)
	assert.Equal(t, 1, changes[0].AnswerCount)
	assert.Equal(t, "auto", s.Reflection("1.1"))

	require.NoError(t, s.SetAnswer("1.2", 4))
	assert.Len(t, changes, 2, "guard is released after notifying")
}

func TestAssessmentStore_CheckCompletion(t *testing.T) {
	s := newTestStore(ann, newFakeAssessmentCache(), newFakeClock())
	s.Hydrate(context.Background())
	schema := survey.DefaultQuestions()

	for id, v := range fillAll(4) {
		require.NoError(t, s.SetAnswer(id, v))
	}
	assert.True(t, s.CheckCompletion(schema).IsComplete)

	require.NoError(t, s.SetCurrentSection(model.SectionMission))
	assert.ErrorIs(t, s.SetCurrentSection("elsewhere"), survey.ErrUnknownSection)
}
