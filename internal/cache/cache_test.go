package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/alexanderramin/dealboard/internal/board"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu        sync.Mutex
	deals     map[string]*domain.Deal
	listCalls int
	updateErr error
}

func newStubStore(deals ...*domain.Deal) *stubStore {
	s := &stubStore{deals: map[string]*domain.Deal{}}
	for _, d := range deals {
		s.deals[d.ID] = d
	}
	return s
}

func (s *stubStore) GetByID(_ context.Context, id string) (*domain.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *stubStore) Update(_ context.Context, d *domain.Deal) (*domain.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	cp := *d
	s.deals[d.ID] = &cp
	return &cp, nil
}

func (s *stubStore) List(_ context.Context, f domain.DealFilter) ([]*domain.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []*domain.Deal
	for _, d := range s.deals {
		if f.PipelineID != "" && d.PipelineID != f.PipelineID {
			continue
		}
		if f.StageID != "" && d.StageID != f.StageID {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

var _ board.DealStore = (*DealCache)(nil)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}


func newCache(t *testing.T, store board.DealStore, client *redis.Client, ttl time.Duration) *DealCache {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(store, client, ttl, logger)
}

func testDeal(id, pipelineID, stageID string) *domain.Deal {
	return &domain.Deal{ID: id, PipelineID: pipelineID, StageID: stageID, Title: id, Status: domain.DealOpen}
}

func TestList_MissThenHit(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, time.Minute)
	ctx := context.Background()
	f := domain.DealFilter{PipelineID: "p1"}

	first, err := c.List(ctx, f)
	require.NoError(t, err)
	second, err := c.List(ctx, f)
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls())
	assert.Equal(t, first, second)

	ttl := mr.TTL(listKey(f))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)
	members, err := mr.Members(tagPrefix + board.PipelineTag("p1"))
	require.NoError(t, err)
	assert.Equal(t, []string{listKey(f)}, members)
}

func TestUpdate_InvalidatesTaggedListings(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"), testDeal("d2", "p2", "s9"))
	c := newCache(t, store, client, time.Minute)
	ctx := context.Background()

	scoped := domain.DealFilter{PipelineID: "p1"}
	other := domain.DealFilter{PipelineID: "p2"}
	global := domain.DealFilter{}
	for _, f := range []domain.DealFilter{scoped, other, global} {
		_, err := c.List(ctx, f)
		require.NoError(t, err)
	}

	d := testDeal("d1", "p1", "s2")
	_, err := c.Update(ctx, d)
	require.NoError(t, err)

	assert.False(t, mr.Exists(listKey(scoped)))
	assert.False(t, mr.Exists(listKey(global)))
	// p2's listing is also tagged "deals", so it goes too.
	assert.False(t, mr.Exists(listKey(other)))

	deals, err := c.List(ctx, scoped)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "s2", deals[0].StageID)
}

func TestInvalidate_PipelineTagOnly(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"), testDeal("d2", "p2", "s9"))
	c := newCache(t, store, client, time.Minute)
	ctx := context.Background()

	_, err := c.List(ctx, domain.DealFilter{PipelineID: "p1"})
	require.NoError(t, err)
	_, err = c.List(ctx, domain.DealFilter{PipelineID: "p2"})
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, board.PipelineTag("p1")))
	assert.False(t, mr.Exists(listKey(domain.DealFilter{PipelineID: "p1"})))
	assert.True(t, mr.Exists(listKey(domain.DealFilter{PipelineID: "p2"})))
}

func TestUpdate_ErrorKeepsCache(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, time.Minute)
	ctx := context.Background()
	f := domain.DealFilter{PipelineID: "p1"}

	_, err := c.List(ctx, f)
	require.NoError(t, err)

	store.updateErr = errors.New("boom")
	_, err = c.Update(ctx, testDeal("d1", "p1", "s2"))
	require.Error(t, err)
	assert.True(t, mr.Exists(listKey(f)))
}

func TestRefetch_BypassesCachedCopy(t *testing.T) {
	_, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, time.Minute)
	ctx := context.Background()
	f := domain.DealFilter{PipelineID: "p1"}

	_, err := c.List(ctx, f)
	require.NoError(t, err)
	_, err = c.Refetch(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls())
}

func TestList_CorruptEntryFallsBack(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, time.Minute)
	f := domain.DealFilter{PipelineID: "p1"}
	require.NoError(t, mr.Set(listKey(f), "not json"))

	deals, err := c.List(context.Background(), f)
	require.NoError(t, err)
	assert.Len(t, deals, 1)
	assert.Equal(t, 1, store.calls())
}

func TestList_RedisDownFallsBack(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, time.Minute)
	mr.Close()

	deals, err := c.List(context.Background(), domain.DealFilter{PipelineID: "p1"})
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

func TestNilClientPassesThrough(t *testing.T) {
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, nil, time.Minute)
	ctx := context.Background()

	_, err := c.List(ctx, domain.DealFilter{})
	require.NoError(t, err)
	_, err = c.List(ctx, domain.DealFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls())
	assert.NoError(t, c.Invalidate(ctx, board.TagDeals))
}

func TestZeroTTLSkipsStore(t *testing.T) {
	mr, client := newRedis(t)
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, 0)
	f := domain.DealFilter{PipelineID: "p1"}

	_, err := c.List(context.Background(), f)
	require.NoError(t, err)
	assert.False(t, mr.Exists(listKey(f)))
}

func TestDealCache_AsBoardInvalidator(t *testing.T) {
	mr, client := newRedis(t)
	pipeline := &domain.Pipeline{ID: "p1", Name: "Sales", Stages: []domain.Stage{
		{ID: "s1", PipelineID: "p1", Title: "Lead", Position: 0},
		{ID: "s2", PipelineID: "p1", Title: "Proposal", Position: 1},
	}}
	store := newStubStore(testDeal("d1", "p1", "s1"))
	c := newCache(t, store, client, time.Minute)
	logger, _ := test.NewNullLogger()

	b := board.New(pipeline, c, board.WithInvalidator(c), board.WithLogger(logger))
	t.Cleanup(b.Close)
	ctx := context.Background()
	require.NoError(t, b.Load(ctx))
	require.True(t, mr.Exists(listKey(domain.DealFilter{PipelineID: "p1"})))

	results, err := b.Move(ctx, "d1", "s2", 0)
	require.NoError(t, err)
	require.NoError(t, board.Failed(results))

	stacks := b.Stacks()
	require.Len(t, stacks[1].Cards, 1)
	assert.Equal(t, "d1", stacks[1].Cards[0].ID)
}
