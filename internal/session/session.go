// Package session содержит состояние сеанса воспроизведения: текущий трек,
// линейный и перемешанный порядок и навигацию по ним.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
)

// ErrTrackUnavailable возвращается, если полную запись трека получить не удалось
var ErrTrackUnavailable = errors.New("трек недоступен для воспроизведения")

// Catalog источник треков сеанса (реализуется catalog.Store)
type Catalog interface {
	AllTracks(ctx context.Context) []data.Track
	TrackData(ctx context.Context, id string) (*data.Record, error)
	UpdateLastPlayed(ctx context.Context, id string) error
	RemoveTrack(ctx context.Context, id string) error
}

// Session сеанс воспроизведения. Индекс -1 означает, что трек не выбран.
type Session struct {
	mu       sync.Mutex
	catalog  Catalog
	log      *zap.Logger
	rnd      *rand.Rand
	linear   []data.Track
	shuffled []data.Track
	shuffle  bool
	index    int
	current  *data.Track
}

// Option настраивает Session
type Option func(*Session)

// WithRand задает источник случайных чисел для перемешивания
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

// WithLogger задает логгер
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// New создает сеанс без выбранного трека. Порядок загружается через Refresh.
func New(catalog Catalog, opts ...Option) *Session {
	s := &Session{
		catalog: catalog,
		log:     zap.NewNop(),
		rnd:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		index:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh перечитывает каталог и перестраивает порядок воспроизведения
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) {
	s.linear = s.catalog.AllTracks(ctx)

	if s.current != nil && indexOf(s.linear, s.current.ID) < 0 {
		s.log.Debug("текущий трек исчез из каталога", zap.String("id", s.current.ID))
		s.current = nil
	}

	if s.shuffle {
		s.shuffled = s.buildShuffledLocked()
	}
	s.reindexLocked()
}

// reindexLocked находит текущий трек в активном порядке
func (s *Session) reindexLocked() {
	if s.current == nil {
		s.index = -1
		return
	}
	s.index = indexOf(s.activeLocked(), s.current.ID)
	if s.index < 0 {
		s.current = nil
	}
}

func (s *Session) activeLocked() []data.Track {
	if s.shuffle {
		return s.shuffled
	}
	return s.linear
}

// buildShuffledLocked перемешивает каталог, оставляя текущий трек первым
func (s *Session) buildShuffledLocked() []data.Track {
	pool := make([]data.Track, 0, len(s.linear))
	var head *data.Track
	for i := range s.linear {
		if s.current != nil && s.linear[i].ID == s.current.ID {
			head = &s.linear[i]
			continue
		}
		pool = append(pool, s.linear[i])
	}

	// Тасование Фишера-Йетса
	for i := len(pool) - 1; i > 0; i-- {
		j := s.rnd.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	if head != nil {
		pool = append([]data.Track{*head}, pool...)
	}
	return pool
}

// Select делает трек текущим: обновляет время воспроизведения и возвращает полную запись.
// Если запись получить не удалось, сеанс переходит в состояние без выбора.
func (s *Session) Select(ctx context.Context, track data.Track) (*data.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selectLocked(ctx, track.ID)
}

func (s *Session) selectLocked(ctx context.Context, id string) (*data.Record, error) {
	pos := indexOf(s.activeLocked(), id)
	if pos < 0 {
		// Каталог мог измениться в обход сеанса
		s.refreshLocked(ctx)
		pos = indexOf(s.activeLocked(), id)
	}
	if pos < 0 {
		s.log.Warn("трек не найден в каталоге", zap.String("id", id))
		s.resetLocked()
		return nil, fmt.Errorf("%w: трек %s не найден", ErrTrackUnavailable, id)
	}

	if err := s.catalog.UpdateLastPlayed(ctx, id); err != nil {
		s.log.Warn("не удалось обновить время воспроизведения", zap.String("id", id), zap.Error(err))
	}

	rec, err := s.catalog.TrackData(ctx, id)
	if err != nil {
		s.log.Error("ошибка получения записи трека", zap.String("id", id), zap.Error(err))
		s.resetLocked()
		return nil, fmt.Errorf("%w: %w", ErrTrackUnavailable, err)
	}
	if rec == nil || len(rec.Data) == 0 {
		s.log.Error("у трека нет аудиоданных", zap.String("id", id))
		s.resetLocked()
		return nil, fmt.Errorf("%w: нет аудиоданных трека %s", ErrTrackUnavailable, id)
	}

	s.syncTrackLocked(rec.Track)
	current := rec.Track
	s.current = &current
	s.index = pos
	return rec, nil
}

// syncTrackLocked обновляет копии трека в обоих порядках
func (s *Session) syncTrackLocked(track data.Track) {
	if i := indexOf(s.linear, track.ID); i >= 0 {
		s.linear[i] = track
	}
	if i := indexOf(s.shuffled, track.ID); i >= 0 {
		s.shuffled[i] = track
	}
}

// Update заменяет копии трека в сеансе, не меняя порядок
func (s *Session) Update(track data.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncTrackLocked(track)
	if s.current != nil && s.current.ID == track.ID {
		current := track
		s.current = &current
	}
}

func (s *Session) resetLocked() {
	s.current = nil
	s.index = -1
}

// Next выбирает следующий трек; на последнем треке ничего не делает
func (s *Session) Next(ctx context.Context) (*data.Record, error) {
	return s.step(ctx, 1)
}

// Previous выбирает предыдущий трек; на первом треке ничего не делает
func (s *Session) Previous(ctx context.Context) (*data.Record, error) {
	return s.step(ctx, -1)
}

func (s *Session) step(ctx context.Context, delta int) (*data.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.index < 0 {
		return nil, nil
	}

	active := s.activeLocked()
	target := s.index + delta
	if target < 0 || target >= len(active) {
		return nil, nil
	}
	return s.selectLocked(ctx, active[target].ID)
}

// ToggleShuffle переключает перемешанный порядок и возвращает новое состояние
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shuffle = !s.shuffle
	if s.shuffle {
		s.shuffled = s.buildShuffledLocked()
	} else {
		s.shuffled = nil
	}
	s.reindexLocked()

	s.log.Debug("перемешивание переключено", zap.Bool("shuffle", s.shuffle))
	return s.shuffle
}

// Remove удаляет трек из каталога и перестраивает порядок
func (s *Session) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catalog.RemoveTrack(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления трека: %w", err)
	}

	if s.current != nil && s.current.ID == id {
		s.resetLocked()
	}
	s.refreshLocked(ctx)
	return nil
}

// Current возвращает текущий трек
func (s *Session) Current() (data.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return data.Track{}, false
	}
	return *s.current, true
}

// Index возвращает позицию текущего трека в активном порядке или -1
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index
}

// Shuffled сообщает, включено ли перемешивание
func (s *Session) Shuffled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.shuffle
}

// Tracks возвращает копию активного порядка
func (s *Session) Tracks() []data.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.activeLocked())
}

// Linear возвращает копию порядка каталога
func (s *Session) Linear() []data.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.linear)
}

func indexOf(tracks []data.Track, id string) int {
	return slices.IndexFunc(tracks, func(t data.Track) bool {
		return t.ID == id
	})
}
