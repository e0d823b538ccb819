//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/event"
	"bloodlink/internal/event/cache"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/testutil/containers"
)

// countingDirectory records how many lookups reached the source.
type countingDirectory struct {
	inner   *event.InMemoryDirectory
	lookups int
}

func (d *countingDirectory) Lookup(ctx context.Context, id domain.EventID) (*event.Event, error) {
	d.lookups++
	return d.inner.Lookup(ctx, id)
}

type CacheSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	source *countingDirectory
	dir    *cache.Directory
	ctx    context.Context
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.source = &countingDirectory{inner: event.NewInMemoryDirectory()}
	s.dir = cache.New(s.source, s.redis.Client, time.Minute)
}

func (s *CacheSuite) TestReadThrough() {
	eventID := domain.EventID(uuid.New())
	s.source.inner.Put(event.Event{
		ID:        eventID,
		Name:      "Spring Drive",
		StartDate: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 3, 17, 0, 0, 0, time.UTC),
		Approved:  true,
	})

	first, err := s.dir.Lookup(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal("Spring Drive", first.Name)
	s.Equal(1, s.source.lookups)

	second, err := s.dir.Lookup(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(1, s.source.lookups)

	s.Equal(first.ID, second.ID)
	s.True(first.StartDate.Equal(second.StartDate))
	s.Equal(first.Approved, second.Approved)
}

func (s *CacheSuite) TestMissIsNotCached() {
	eventID := domain.EventID(uuid.New())

	_, err := s.dir.Lookup(s.ctx, eventID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.dir.Lookup(s.ctx, eventID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(2, s.source.lookups)
}

func (s *CacheSuite) TestCorruptEntryFallsThrough() {
	eventID := domain.EventID(uuid.New())
	s.source.inner.Put(event.Event{ID: eventID, Name: "Autumn Drive", Approved: true})

	s.Require().NoError(s.redis.Client.Set(s.ctx, "event:"+eventID.String(), "{not json", time.Minute).Err())

	found, err := s.dir.Lookup(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal("Autumn Drive", found.Name)
	s.Equal(1, s.source.lookups)
}

func (s *CacheSuite) TestEntryExpires() {
	eventID := domain.EventID(uuid.New())
	s.source.inner.Put(event.Event{ID: eventID, Name: "Short Lived", Approved: true})

	short := cache.New(s.source, s.redis.Client, 100*time.Millisecond)

	_, err := short.Lookup(s.ctx, eventID)
	s.Require().NoError(err)
	time.Sleep(200 * time.Millisecond)

	_, err = short.Lookup(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(2, s.source.lookups)
}
