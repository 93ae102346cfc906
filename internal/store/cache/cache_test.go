package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	states    map[string]*models.ConversationState
	loadCalls int
	failSave  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*models.ConversationState)}
}

func (f *fakeStore) LoadState(ctx context.Context, phone string) (*models.ConversationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	return f.states[phone].Clone(), nil
}

func (f *fakeStore) SaveState(ctx context.Context, state *models.ConversationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("save failed")
	}
	f.states[state.Phone] = state.Clone()
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, sessionID string, role models.Role, text string, step models.Step) (string, error) {
	return "msg-1", nil
}

func (f *fakeStore) SaveLead(ctx context.Context, state *models.ConversationState) (string, error) {
	return "lead-1", nil
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func testState() *models.ConversationState {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	return &models.ConversationState{
		SessionID:   "session_593991234567_20250314_103000",
		Phone:       "+593991234567",
		CampaignID:  "camp-001",
		ProductType: models.ProductCreditCard,
		CurrentStep: models.StepCollectIncome,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestCachedStore_SaveThenLoadHitsCache(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := newFakeStore()
	store := NewCachedStore(inner, client, 10*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, testState()))
	assert.True(t, mr.Exists("conv:state:+593991234567"))
	assert.Equal(t, 10*time.Minute, mr.TTL("conv:state:+593991234567"))

	state, err := store.LoadState(ctx, "+593991234567")

	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StepCollectIncome, state.CurrentStep)
	assert.Equal(t, 0, inner.loadCalls)
}

func TestCachedStore_MissFallsBackAndPopulates(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := newFakeStore()
	inner.states["+593991234567"] = testState()
	store := NewCachedStore(inner, client, 0, logger.NewTestLogger(t))
	ctx := context.Background()

	state, err := store.LoadState(ctx, "+593991234567")

	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 1, inner.loadCalls)
	assert.True(t, mr.Exists("conv:state:+593991234567"))
	assert.Equal(t, DefaultStateTTL, mr.TTL("conv:state:+593991234567"))

	_, err = store.LoadState(ctx, "+593991234567")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loadCalls)
}

func TestCachedStore_AbsentStateIsNotCached(t *testing.T) {
	mr, client := setupMiniredis(t)
	store := NewCachedStore(newFakeStore(), client, time.Minute, logger.NewTestLogger(t))

	state, err := store.LoadState(context.Background(), "+593991234567")

	assert.NoError(t, err)
	assert.Nil(t, state)
	assert.False(t, mr.Exists("conv:state:+593991234567"))
}

func TestCachedStore_CorruptEntryIsDiscarded(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := newFakeStore()
	inner.states["+593991234567"] = testState()
	require.NoError(t, mr.Set("conv:state:+593991234567", "{broken"))
	store := NewCachedStore(inner, client, time.Minute, logger.NewTestLogger(t))

	state, err := store.LoadState(context.Background(), "+593991234567")

	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 1, inner.loadCalls)
}

func TestCachedStore_FailedSaveLeavesCacheUntouched(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := newFakeStore()
	inner.failSave = true
	store := NewCachedStore(inner, client, time.Minute, logger.NewTestLogger(t))

	err := store.SaveState(context.Background(), testState())

	assert.Error(t, err)
	assert.False(t, mr.Exists("conv:state:+593991234567"))
}

func TestCachedStore_RedisErrorsDegradeToInner(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := newFakeStore()
	state := testState()
	inner.states[state.Phone] = state
	store := NewCachedStore(inner, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	data, err := json.Marshal(state)
	require.NoError(t, err)

	redisMock.ExpectGet("conv:state:+593991234567").SetErr(errors.New("connection refused"))
	redisMock.ExpectSet("conv:state:+593991234567", data, time.Minute).SetErr(errors.New("connection refused"))

	loaded, err := store.LoadState(ctx, state.Phone)

	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state.SessionID, loaded.SessionID)
	assert.Equal(t, 1, inner.loadCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedStore_PassThrough(t *testing.T) {
	_, client := setupMiniredis(t)
	store := NewCachedStore(newFakeStore(), client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	id, err := store.AppendMessage(ctx, "s-1", models.RoleUser, "hola", models.StepGreeting)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	leadID, err := store.SaveLead(ctx, testState())
	require.NoError(t, err)
	assert.Equal(t, "lead-1", leadID)
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, client := setupMiniredis(t)
	locker := NewRedisLocker(client, 5*time.Second, logger.NewTestLogger(t))

	release, err := locker.Acquire(context.Background(), "+593991234567")

	require.NoError(t, err)
	assert.True(t, mr.Exists("conv:lock:+593991234567"))
	assert.Equal(t, 5*time.Second, mr.TTL("conv:lock:+593991234567"))

	release()
	assert.False(t, mr.Exists("conv:lock:+593991234567"))
}

func TestRedisLocker_ContentionTimesOut(t *testing.T) {
	_, client := setupMiniredis(t)
	locker := NewRedisLocker(client, 5*time.Second, logger.NewTestLogger(t))
	locker.pollInterval = 5 * time.Millisecond

	release, err := locker.Acquire(context.Background(), "+593991234567")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	second, err := locker.Acquire(ctx, "+593991234567")

	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestRedisLocker_WaiterGetsLockAfterRelease(t *testing.T) {
	_, client := setupMiniredis(t)
	locker := NewRedisLocker(client, 5*time.Second, logger.NewTestLogger(t))
	locker.pollInterval = 5 * time.Millisecond

	release, err := locker.Acquire(context.Background(), "+593991234567")
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r, err := locker.Acquire(ctx, "+593991234567")
		if err == nil {
			r()
		}
		acquired <- err
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := setupMiniredis(t)
	locker := NewRedisLocker(client, time.Second, logger.NewTestLogger(t))

	release, err := locker.Acquire(context.Background(), "+593991234567")
	require.NoError(t, err)

	// the lock expired and another instance took it over
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("conv:lock:+593991234567", "other-token"))

	release()

	value, err := mr.Get("conv:lock:+593991234567")
	require.NoError(t, err)
	assert.Equal(t, "other-token", value)
}

func TestRedisLocker_IndependentKeys(t *testing.T) {
	_, client := setupMiniredis(t)
	locker := NewRedisLocker(client, time.Second, logger.NewTestLogger(t))
	ctx := context.Background()

	r1, err := locker.Acquire(ctx, "+593991111111")
	require.NoError(t, err)
	defer r1()

	r2, err := locker.Acquire(ctx, "+593992222222")
	require.NoError(t, err)
	defer r2()
}
