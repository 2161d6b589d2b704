package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hazadus/go-jukebox/internal/data"
)

// fakeCatalog каталог в памяти
type fakeCatalog struct {
	mu        sync.Mutex
	tracks    []data.Track
	payload   map[string][]byte
	fetchErr  error
	removeErr error
	played    []string
}

func newFakeCatalog(n int) *fakeCatalog {
	c := &fakeCatalog{payload: make(map[string][]byte)}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("t%d", i)
		c.tracks = append(c.tracks, data.Track{ID: id, Title: "Track " + id})
		c.payload[id] = []byte("audio-" + id)
	}
	return c
}

func (c *fakeCatalog) AllTracks(context.Context) []data.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]data.Track, 0, len(c.tracks)), c.tracks...)
}

func (c *fakeCatalog) TrackData(_ context.Context, id string) (*data.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	i := slices.IndexFunc(c.tracks, func(t data.Track) bool { return t.ID == id })
	if i < 0 {
		return nil, nil
	}
	return &data.Record{Track: c.tracks[i], Data: c.payload[id]}, nil
}

func (c *fakeCatalog) UpdateLastPlayed(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.played = append(c.played, id)
	for i := range c.tracks {
		if c.tracks[i].ID == id {
			c.tracks[i].LastPlayed = int64(len(c.played))
		}
	}
	return nil
}

func (c *fakeCatalog) RemoveTrack(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.removeErr != nil {
		return c.removeErr
	}
	c.tracks = slices.DeleteFunc(c.tracks, func(t data.Track) bool { return t.ID == id })
	delete(c.payload, id)
	return nil
}

func newSession(t *testing.T, c Catalog, seed uint64) *Session {
	t.Helper()

	s := New(c, WithRand(rand.New(rand.NewPCG(seed, seed+1))), WithLogger(zaptest.NewLogger(t)))
	s.Refresh(context.Background())
	return s
}

func ids(tracks []data.Track) []string {
	result := make([]string, 0, len(tracks))
	for _, t := range tracks {
		result = append(result, t.ID)
	}
	return result
}

func selectID(t *testing.T, s *Session, id string) *data.Record {
	t.Helper()

	rec, err := s.Select(context.Background(), data.Track{ID: id})
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestNewSessionIsIdle(t *testing.T) {
	s := newSession(t, newFakeCatalog(3), 1)

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Index())
	assert.False(t, s.Shuffled())
	assert.Equal(t, []string{"t0", "t1", "t2"}, ids(s.Tracks()))

	rec, err := s.Next(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = s.Previous(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSelect(t *testing.T) {
	c := newFakeCatalog(3)
	s := newSession(t, c, 1)

	rec := selectID(t, s, "t1")
	assert.Equal(t, "t1", rec.ID)
	assert.Equal(t, []byte("audio-t1"), rec.Data)

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t1", current.ID)
	assert.Equal(t, 1, s.Index())
	assert.Equal(t, []string{"t1"}, c.played)

	// Время воспроизведения видно и в копиях сеанса
	assert.Equal(t, int64(1), s.Linear()[1].LastPlayed)
}

func TestSelectFailureGoesIdle(t *testing.T) {
	c := newFakeCatalog(3)
	s := newSession(t, c, 1)
	selectID(t, s, "t0")

	c.mu.Lock()
	c.fetchErr = errors.New("ошибка ввода-вывода")
	c.mu.Unlock()

	rec, err := s.Select(context.Background(), data.Track{ID: "t2"})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrTrackUnavailable)

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Index())
}

func TestSelectMissingBufferGoesIdle(t *testing.T) {
	c := newFakeCatalog(2)
	c.payload["t1"] = nil
	s := newSession(t, c, 1)

	_, err := s.Select(context.Background(), data.Track{ID: "t1"})
	assert.ErrorIs(t, err, ErrTrackUnavailable)

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSelectUnknownTrack(t *testing.T) {
	s := newSession(t, newFakeCatalog(2), 1)

	_, err := s.Select(context.Background(), data.Track{ID: "missing"})
	assert.ErrorIs(t, err, ErrTrackUnavailable)
	assert.Equal(t, -1, s.Index())
}

func TestSelectTrackAddedAfterRefresh(t *testing.T) {
	c := newFakeCatalog(1)
	s := newSession(t, c, 1)

	c.mu.Lock()
	c.tracks = append(c.tracks, data.Track{ID: "late", Title: "Late"})
	c.payload["late"] = []byte("audio")
	c.mu.Unlock()

	rec := selectID(t, s, "late")
	assert.Equal(t, "late", rec.ID)
	assert.Equal(t, 1, s.Index())
}

func TestLinearNavigationBoundaries(t *testing.T) {
	s := newSession(t, newFakeCatalog(3), 1)
	ctx := context.Background()

	selectID(t, s, "t0")

	rec, err := s.Previous(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec, "на первом треке переход назад ничего не делает")
	current, _ := s.Current()
	assert.Equal(t, "t0", current.ID)

	rec, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.ID)

	rec, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", rec.ID)

	rec, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec, "на последнем треке переход вперед ничего не делает")
	current, _ = s.Current()
	assert.Equal(t, "t2", current.ID)
	assert.Equal(t, 2, s.Index())

	rec, err = s.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.ID)
}

func TestShuffledNavigationBoundaries(t *testing.T) {
	s := newSession(t, newFakeCatalog(5), 7)
	ctx := context.Background()

	selectID(t, s, "t3")
	s.ToggleShuffle()

	order := ids(s.Tracks())
	assert.Equal(t, "t3", order[0], "текущий трек остается первым")
	assert.Equal(t, 0, s.Index())

	rec, err := s.Previous(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	for i := 1; i < len(order); i++ {
		rec, err = s.Next(ctx)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, order[i], rec.ID)
	}

	rec, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	current, _ := s.Current()
	assert.Equal(t, order[len(order)-1], current.ID)
}

func TestShuffleRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 2, 5, 20} {
		for _, selected := range []bool{false, true} {
			t.Run(fmt.Sprintf("size=%d/selected=%v", size, selected), func(t *testing.T) {
				s := newSession(t, newFakeCatalog(size), uint64(size))
				if selected && size > 0 {
					selectID(t, s, fmt.Sprintf("t%d", size/2))
				}
				before := ids(s.Tracks())
				beforeIndex := s.Index()

				assert.True(t, s.ToggleShuffle())
				shuffled := ids(s.Tracks())
				assert.ElementsMatch(t, before, shuffled)

				assert.False(t, s.ToggleShuffle())
				assert.Equal(t, before, ids(s.Tracks()))
				assert.Equal(t, beforeIndex, s.Index())
			})
		}
	}
}

func TestShuffleWithoutCurrentStaysIdle(t *testing.T) {
	s := newSession(t, newFakeCatalog(4), 3)

	s.ToggleShuffle()
	assert.Equal(t, -1, s.Index())
	assert.Len(t, s.Tracks(), 4)

	rec, err := s.Next(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestShuffleIsReproducibleWithSeed(t *testing.T) {
	a := newSession(t, newFakeCatalog(10), 42)
	b := newSession(t, newFakeCatalog(10), 42)

	a.ToggleShuffle()
	b.ToggleShuffle()
	assert.Equal(t, ids(a.Tracks()), ids(b.Tracks()))
}

func TestShuffleProducesEveryPermutation(t *testing.T) {
	s := newSession(t, newFakeCatalog(3), 9)

	seen := make(map[string]int)
	for i := 0; i < 600; i++ {
		s.ToggleShuffle()
		seen[strings.Join(ids(s.Tracks()), ",")]++
		s.ToggleShuffle()
	}

	assert.Len(t, seen, 6)
	for order, count := range seen {
		assert.Greater(t, count, 50, "перестановка %s встречается слишком редко", order)
	}
}

func TestShuffleOffRecomputesIndex(t *testing.T) {
	s := newSession(t, newFakeCatalog(6), 11)
	ctx := context.Background()

	selectID(t, s, "t0")
	s.ToggleShuffle()

	rec, err := s.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)

	s.ToggleShuffle()
	linearPos := slices.Index(ids(s.Linear()), rec.ID)
	assert.Equal(t, linearPos, s.Index())
}

func TestRemoveCurrentGoesIdle(t *testing.T) {
	c := newFakeCatalog(3)
	s := newSession(t, c, 1)
	selectID(t, s, "t1")

	require.NoError(t, s.Remove(context.Background(), "t1"))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Index())
	assert.Equal(t, []string{"t0", "t2"}, ids(s.Tracks()))
}

func TestRemoveOtherKeepsCurrent(t *testing.T) {
	c := newFakeCatalog(3)
	s := newSession(t, c, 1)
	selectID(t, s, "t2")

	require.NoError(t, s.Remove(context.Background(), "t0"))

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t2", current.ID)
	assert.Equal(t, 1, s.Index())
}

func TestRemoveWhileShuffledRegeneratesOrder(t *testing.T) {
	c := newFakeCatalog(5)
	s := newSession(t, c, 5)
	selectID(t, s, "t4")
	s.ToggleShuffle()

	require.NoError(t, s.Remove(context.Background(), "t1"))

	order := ids(s.Tracks())
	assert.Len(t, order, 4)
	assert.NotContains(t, order, "t1")
	assert.Equal(t, "t4", order[0])
	assert.Equal(t, 0, s.Index())
}

func TestRemoveFailure(t *testing.T) {
	c := newFakeCatalog(2)
	c.removeErr = errors.New("хранилище недоступно")
	s := newSession(t, c, 1)
	selectID(t, s, "t0")

	assert.Error(t, s.Remove(context.Background(), "t0"))

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t0", current.ID)
}

func TestRefreshDropsVanishedCurrent(t *testing.T) {
	c := newFakeCatalog(3)
	s := newSession(t, c, 1)
	selectID(t, s, "t1")

	c.mu.Lock()
	c.tracks = slices.DeleteFunc(c.tracks, func(tr data.Track) bool { return tr.ID == "t1" })
	c.mu.Unlock()

	s.Refresh(context.Background())

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, s.Index())
	assert.Equal(t, []string{"t0", "t2"}, ids(s.Tracks()))
}

func TestRefreshKeepsCurrentIndex(t *testing.T) {
	c := newFakeCatalog(3)
	s := newSession(t, c, 1)
	selectID(t, s, "t2")

	c.mu.Lock()
	c.tracks = append([]data.Track{{ID: "new", Title: "New"}}, c.tracks...)
	c.mu.Unlock()

	s.Refresh(context.Background())
	assert.Equal(t, 3, s.Index())
}

func TestUpdateKeepsOrder(t *testing.T) {
	s := newSession(t, newFakeCatalog(4), 2)
	selectID(t, s, "t2")
	s.ToggleShuffle()
	order := ids(s.Tracks())

	s.Update(data.Track{ID: "t2", Title: "Track t2", Duration: "2:30"})

	assert.Equal(t, order, ids(s.Tracks()))
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "2:30", current.Duration)
	assert.Equal(t, "2:30", s.Linear()[2].Duration)
}
