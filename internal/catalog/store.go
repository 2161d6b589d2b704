// Package catalog содержит постоянный каталог треков с кэшем в памяти
package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/storage"
)

const (
	// indexKey ключ упорядоченного списка треков
	indexKey = "tracks"
	// recordPrefix префикс ключей полных записей
	recordPrefix = "track:"
)

// ErrStore оборачивает любые ошибки хранилища на пути записи
var ErrStore = errors.New("ошибка хранилища каталога")

// Store каталог треков: хранилище ключ-значение и синхронный кэш списка
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	log    *zap.Logger
	now    func() time.Time
	rnd    *rand.Rand
	cache  []data.Track
	loaded bool
}

// Option настраивает Store
type Option func(*Store)

// WithLogger задает логгер
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock задает источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand задает источник случайных чисел для RandomTracks
func WithRand(rnd *rand.Rand) Option {
	return func(s *Store) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

// New создает каталог поверх хранилища
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		log: zap.NewNop(),
		now: time.Now,
		rnd: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func recordKey(id string) string {
	return recordPrefix + id
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// loadLocked загружает список треков в кэш при первом обращении
func (s *Store) loadLocked(ctx context.Context) ([]data.Track, error) {
	if s.loaded {
		return s.cache, nil
	}

	raw, err := s.kv.Get(ctx, indexKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.cache = make([]data.Track, 0)
		s.loaded = true
		return s.cache, nil
	}
	if err != nil {
		return nil, err
	}

	tracks := make([]data.Track, 0)
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, fmt.Errorf("ошибка разбора списка треков: %w", err)
	}

	s.cache = tracks
	s.loaded = true
	return s.cache, nil
}

// commitLocked записывает список целиком и обновляет кэш
func (s *Store) commitLocked(ctx context.Context, tracks []data.Track) error {
	raw, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("ошибка сериализации списка треков: %w", err)
	}
	if err := s.kv.Set(ctx, indexKey, raw); err != nil {
		return err
	}

	s.cache = tracks
	s.loaded = true
	return nil
}

// AllTracks возвращает копию списка треков.
// Ошибка чтения логируется, результатом становится пустой список.
func (s *Store) AllTracks(ctx context.Context) []data.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks, err := s.loadLocked(ctx)
	if err != nil {
		s.log.Error("не удалось загрузить список треков", zap.Error(err))
		return make([]data.Track, 0)
	}
	return slices.Clone(tracks)
}

// SaveBatch сохраняет новые треки, пропуская уже существующие названия.
// Список треков записывается один раз на пакет.
func (s *Store) SaveBatch(ctx context.Context, records []data.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return 0, storeError("загрузка списка", err)
	}

	titles := make(map[string]struct{}, len(current)+len(records))
	for _, t := range current {
		titles[t.Title] = struct{}{}
	}

	next := slices.Clone(current)
	var written []string

	for i := range records {
		rec := &records[i]
		if _, exists := titles[rec.Title]; exists {
			s.log.Debug("трек с таким названием уже есть", zap.String("title", rec.Title))
			continue
		}

		raw, err := json.Marshal(rec)
		if err != nil {
			s.rollback(ctx, written)
			return 0, storeError("сериализация записи", err)
		}
		if err := s.kv.Set(ctx, recordKey(rec.ID), raw); err != nil {
			s.rollback(ctx, written)
			return 0, storeError("запись трека", err)
		}

		titles[rec.Title] = struct{}{}
		written = append(written, rec.ID)
		next = append(next, rec.Index())
	}

	if len(written) == 0 {
		return 0, nil
	}

	if err := s.commitLocked(ctx, next); err != nil {
		s.rollback(ctx, written)
		return 0, storeError("запись списка", err)
	}

	s.log.Info("треки сохранены в каталог",
		zap.Int("added", len(written)),
		zap.Int("skipped", len(records)-len(written)))
	return len(written), nil
}

// rollback удаляет записи, уже сохраненные в неудавшемся пакете
func (s *Store) rollback(ctx context.Context, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := s.kv.Delete(ctx, recordKey(id)); err != nil {
			s.log.Warn("не удалось откатить запись трека", zap.String("id", id), zap.Error(err))
		}
	}
}

// TrackData возвращает полную запись трека или nil, если трека нет.
// Поля трека берутся из списка, чтобы обе проекции совпадали.
func (s *Store) TrackData(ctx context.Context, id string) (*data.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		s.log.Error("не удалось загрузить список треков", zap.Error(err))
		return nil, storeError("загрузка списка", err)
	}

	idx := indexOf(current, id)
	if idx < 0 {
		return nil, nil
	}

	raw, err := s.kv.Get(ctx, recordKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.Error("не удалось прочитать запись трека", zap.String("id", id), zap.Error(err))
		return nil, storeError("чтение трека", err)
	}

	var rec data.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, storeError("разбор записи трека", err)
	}
	rec.Track = current[idx]
	return &rec, nil
}

// RemoveTrack удаляет трек из списка и его полную запись
func (s *Store) RemoveTrack(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return storeError("загрузка списка", err)
	}

	if idx := indexOf(current, id); idx >= 0 {
		next := slices.Delete(slices.Clone(current), idx, idx+1)
		if err := s.commitLocked(ctx, next); err != nil {
			return storeError("запись списка", err)
		}
	}

	// Запись вне списка недоступна для чтения, поэтому ошибка удаления не критична
	if err := s.kv.Delete(ctx, recordKey(id)); err != nil {
		s.log.Warn("не удалось удалить запись трека", zap.String("id", id), zap.Error(err))
	}
	return nil
}

// UpdateLastPlayed отмечает время последнего воспроизведения; неизвестный ID игнорируется
func (s *Store) UpdateLastPlayed(ctx context.Context, id string) error {
	return s.updateTrack(ctx, id, func(t *data.Track) {
		t.LastPlayed = s.now().UnixMilli()
	})
}

// UpdateDuration сохраняет длительность трека; неизвестный ID игнорируется
func (s *Store) UpdateDuration(ctx context.Context, id, duration string) error {
	return s.updateTrack(ctx, id, func(t *data.Track) {
		t.Duration = duration
	})
}

func (s *Store) updateTrack(ctx context.Context, id string, mutate func(*data.Track)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return storeError("загрузка списка", err)
	}

	idx := indexOf(current, id)
	if idx < 0 {
		return nil
	}

	next := slices.Clone(current)
	mutate(&next[idx])
	if err := s.commitLocked(ctx, next); err != nil {
		return storeError("запись списка", err)
	}
	return nil
}

// RecentTracks возвращает n треков по убыванию времени воспроизведения.
// Треки с одинаковым временем сохраняют порядок каталога.
func (s *Store) RecentTracks(ctx context.Context, n int) []data.Track {
	tracks := s.AllTracks(ctx)
	slices.SortStableFunc(tracks, func(a, b data.Track) int {
		return cmp.Compare(b.LastPlayed, a.LastPlayed)
	})
	return truncate(tracks, n)
}

// RandomTracks возвращает до n случайных треков
func (s *Store) RandomTracks(ctx context.Context, n int) []data.Track {
	tracks := s.AllTracks(ctx)

	s.mu.Lock()
	s.rnd.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	s.mu.Unlock()

	return truncate(tracks, n)
}

// Search ищет треки по подстроке в названии без учета регистра
func (s *Store) Search(ctx context.Context, query string) []data.Track {
	tracks := s.AllTracks(ctx)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tracks
	}

	return slices.DeleteFunc(tracks, func(t data.Track) bool {
		return !strings.Contains(strings.ToLower(t.Title), query)
	})
}

// ClearLibrary удаляет все записи и очищает список
func (s *Store) ClearLibrary(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(ctx, recordPrefix)
	if err != nil {
		return storeError("перечисление записей", err)
	}

	if err := s.commitLocked(ctx, make([]data.Track, 0)); err != nil {
		return storeError("запись списка", err)
	}

	// Список уже пуст, так что оставшиеся записи недоступны для чтения
	failed := 0
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			failed++
			s.log.Warn("не удалось удалить запись трека", zap.String("key", key), zap.Error(err))
		}
	}

	s.log.Info("библиотека очищена", zap.Int("removed", len(keys)-failed), zap.Int("failed", failed))
	return nil
}

func indexOf(tracks []data.Track, id string) int {
	return slices.IndexFunc(tracks, func(t data.Track) bool {
		return t.ID == id
	})
}

func truncate(tracks []data.Track, n int) []data.Track {
	if n < 0 {
		n = 0
	}
	if len(tracks) > n {
		return tracks[:n]
	}
	return tracks
}
