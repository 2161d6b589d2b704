// Package jukebox связывает сеанс воспроизведения, аудиодвижок и каталог
package jukebox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/metadata"
	"github.com/hazadus/go-jukebox/internal/player"
	"github.com/hazadus/go-jukebox/internal/session"
)

// ErrPlaybackFailed возвращается, если выбранный трек воспроизвести не удалось
var ErrPlaybackFailed = errors.New("не удалось воспроизвести трек")

// DurationStore сохраняет настоящую длительность трека (реализуется catalog.Store)
type DurationStore interface {
	UpdateDuration(ctx context.Context, id, duration string) error
}

// Snapshot состояние проигрывателя для отображения
type Snapshot struct {
	Track     *data.Track   // Текущий трек или nil
	Index     int           // Позиция в активном порядке
	IsPlaying bool          // Воспроизводится ли трек
	Current   time.Duration // Текущая позиция
	Total     time.Duration // Общая продолжительность
	Volume    float64       // Громкость 0..1
	Repeat    bool          // Повтор трека
	Shuffle   bool          // Перемешанный порядок
	LastError error         // Последняя ошибка воспроизведения
}

// Jukebox выполняет команды пользователя над сеансом и движком
type Jukebox struct {
	mutex     sync.Mutex
	session   *session.Session
	engine    *player.Engine
	durations DurationStore
	log       *zap.Logger

	repeat         bool
	lastErr        error
	removeListener func()
}

// New создает проигрыватель и подписывает его на события движка
func New(sess *session.Session, engine *player.Engine, durations DurationStore, log *zap.Logger) *Jukebox {
	if log == nil {
		log = zap.NewNop()
	}
	j := &Jukebox{
		session:   sess,
		engine:    engine,
		durations: durations,
		log:       log,
	}
	j.removeListener = engine.AddListener(j.handleEvent)
	return j
}

// Close отписывается от движка и освобождает ресурс воспроизведения
func (j *Jukebox) Close() {
	j.removeListener()
	j.engine.Cleanup()
}

// Select выбирает трек и начинает его воспроизведение
func (j *Jukebox) Select(ctx context.Context, track data.Track) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	rec, err := j.session.Select(ctx, track)
	if err != nil {
		j.engine.Cleanup()
		return j.fail(err)
	}
	return j.playLocked(ctx, rec)
}

// Next переходит к следующему треку; на последнем ничего не делает
func (j *Jukebox) Next(ctx context.Context) error {
	return j.step(ctx, j.session.Next)
}

// Previous переходит к предыдущему треку; на первом ничего не делает
func (j *Jukebox) Previous(ctx context.Context) error {
	return j.step(ctx, j.session.Previous)
}

func (j *Jukebox) step(ctx context.Context, move func(context.Context) (*data.Record, error)) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	return j.stepLocked(ctx, move)
}

func (j *Jukebox) stepLocked(ctx context.Context, move func(context.Context) (*data.Record, error)) error {
	rec, err := move(ctx)
	if err != nil {
		j.engine.Cleanup()
		return j.fail(err)
	}
	if rec == nil {
		return nil
	}
	return j.playLocked(ctx, rec)
}

// playLocked загружает запись в движок и запускает воспроизведение
func (j *Jukebox) playLocked(ctx context.Context, rec *data.Record) error {
	if err := j.engine.LoadTrack(ctx, rec); err != nil {
		return j.fail(err)
	}
	if err := j.engine.Play(ctx); err != nil {
		j.engine.Pause()
		return j.fail(err)
	}
	j.lastErr = nil

	if rec.Duration == data.PlaceholderDuration {
		j.storeDuration(ctx, rec.Track)
	}

	j.log.Info("воспроизведение трека",
		zap.String("id", rec.ID),
		zap.String("title", rec.Title),
		zap.String("artist", rec.Artist))
	return nil
}

// storeDuration заменяет заглушку длительности настоящим значением
func (j *Jukebox) storeDuration(ctx context.Context, track data.Track) {
	total := j.engine.Duration()
	if total <= 0 {
		return
	}

	track.Duration = metadata.FormatDuration(total)
	if err := j.durations.UpdateDuration(ctx, track.ID, track.Duration); err != nil {
		j.log.Warn("не удалось сохранить длительность трека", zap.String("id", track.ID), zap.Error(err))
		return
	}
	j.session.Update(track)
}

func (j *Jukebox) fail(err error) error {
	j.lastErr = fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	j.log.Error("ошибка воспроизведения", zap.Error(err))
	return j.lastErr
}

// TogglePlay ставит на паузу или продолжает воспроизведение текущего трека
func (j *Jukebox) TogglePlay(ctx context.Context) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.engine.IsPlaying() {
		j.engine.Pause()
		return nil
	}

	current, ok := j.session.Current()
	if !ok {
		return nil
	}

	err := j.engine.Play(ctx)
	if errors.Is(err, player.ErrNothingLoaded) {
		// Ресурс был освобожден, загружаем трек заново
		rec, err := j.session.Select(ctx, current)
		if err != nil {
			return j.fail(err)
		}
		return j.playLocked(ctx, rec)
	}
	if err != nil {
		return j.fail(err)
	}
	j.lastErr = nil
	return nil
}

// ToggleRepeat переключает повтор трека и возвращает новое состояние
func (j *Jukebox) ToggleRepeat() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.repeat = !j.repeat
	j.engine.SetLoop(j.repeat)
	return j.repeat
}

// ToggleShuffle переключает перемешанный порядок и возвращает новое состояние
func (j *Jukebox) ToggleShuffle() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	return j.session.ToggleShuffle()
}

// SetVolume задает громкость 0..1
func (j *Jukebox) SetVolume(v float64) {
	j.engine.SetVolume(v)
}

// Seek перематывает текущий трек на позицию в секундах
func (j *Jukebox) Seek(seconds float64) {
	j.engine.SetCurrentTime(seconds)
}

// Remove удаляет трек; если он играет, воспроизведение останавливается
func (j *Jukebox) Remove(ctx context.Context, id string) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if current, ok := j.session.Current(); ok && current.ID == id {
		j.engine.Cleanup()
	}
	return j.session.Remove(ctx, id)
}

// Refresh перечитывает каталог после внешних изменений
func (j *Jukebox) Refresh(ctx context.Context) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.session.Refresh(ctx)
	if _, ok := j.session.Current(); !ok {
		j.engine.Cleanup()
	}
}

// Tracks возвращает активный порядок треков
func (j *Jukebox) Tracks() []data.Track {
	return j.session.Tracks()
}

// Snapshot возвращает состояние проигрывателя
func (j *Jukebox) Snapshot() Snapshot {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	status := j.engine.Status()
	snap := Snapshot{
		Index:     j.session.Index(),
		IsPlaying: status.IsPlaying,
		Current:   status.Current,
		Total:     status.Total,
		Volume:    status.Volume,
		Repeat:    j.repeat,
		Shuffle:   j.session.Shuffled(),
		LastError: j.lastErr,
	}
	if current, ok := j.session.Current(); ok {
		snap.Track = &current
	}
	return snap
}

// handleEvent переходит к следующему треку по окончании текущего
func (j *Jukebox) handleEvent(ev player.Event) {
	if ev.Kind != player.EventEnded {
		return
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.repeat {
		return
	}
	// Событие запоздало: пользователь уже выбрал другой трек
	if current, ok := j.session.Current(); !ok || current.ID != ev.TrackID {
		return
	}

	if err := j.stepLocked(context.Background(), j.session.Next); err != nil {
		j.log.Warn("не удалось перейти к следующему треку", zap.Error(err))
	}
}
