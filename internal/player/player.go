// Package player содержит компоненты для управления воспроизведением аудио
package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/data"
)

// ErrNothingLoaded возвращается при попытке воспроизведения без загруженного трека
var ErrNothingLoaded = errors.New("трек не загружен")

// Hooks уведомления транспорта о ходе воспроизведения
type Hooks struct {
	OnTimeUpdate func(current time.Duration)
	OnEnded      func()
}

// Transport платформенный примитив воспроизведения
type Transport interface {
	// Open создает ресурс из аудиоданных и возвращается, когда он готов к воспроизведению
	Open(ctx context.Context, data []byte, hooks Hooks) (Resource, error)
}

// Resource загруженный трек, готовый к воспроизведению
type Resource interface {
	Play() error
	Pause()
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	SetVolume(v float64)
	SetLoop(loop bool)
	Close() error
}

// EventKind тип события воспроизведения
type EventKind int

const (
	// EventTimeUpdate позиция воспроизведения изменилась
	EventTimeUpdate EventKind = iota
	// EventEnded трек доиграл до конца
	EventEnded
)

// Event событие воспроизведения для подписчиков
type Event struct {
	Kind    EventKind
	TrackID string // Запись, к которой относится событие
	Current time.Duration
}

// Listener подписчик на события воспроизведения
type Listener func(Event)

// Status представляет текущий статус плеера
type Status struct {
	Current   time.Duration // Текущая позиция
	Total     time.Duration // Общая продолжительность
	IsPlaying bool          // Воспроизводится ли трек
	Volume    float64       // Громкость 0..1
	Loop      bool          // Повтор трека
}

// Engine единственный слот воспроизведения.
// Загрузки выполняются строго по очереди, привязан не более чем один ресурс.
type Engine struct {
	transport Transport
	log       *zap.Logger

	// Токен загрузки: занят, пока выполняется LoadTrack или Play
	token chan struct{}

	mutex    sync.Mutex
	resource Resource
	gen      uint64
	playing  bool
	volume   float64
	loop     bool

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextID      uint64
}

// NewEngine создает движок поверх транспорта
func NewEngine(transport Transport, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		transport: transport,
		log:       log,
		token:     make(chan struct{}, 1),
		volume:    1,
		listeners: make(map[uint64]Listener),
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	<-e.token
}

// LoadTrack дожидается предыдущей загрузки, освобождает текущий ресурс и привязывает новый.
// При ошибке ни один ресурс не остается привязанным.
func (e *Engine) LoadTrack(ctx context.Context, rec *data.Record) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	gen := e.unbind()

	if rec == nil || len(rec.Data) == 0 {
		return fmt.Errorf("ошибка загрузки трека: %w", ErrNothingLoaded)
	}

	id := rec.ID
	hooks := Hooks{
		OnTimeUpdate: func(current time.Duration) {
			e.dispatch(gen, Event{Kind: EventTimeUpdate, TrackID: id, Current: current})
		},
		OnEnded: func() {
			e.handleEnded(gen, id)
		},
	}

	resource, err := e.transport.Open(ctx, rec.Data, hooks)
	if err != nil {
		e.log.Error("не удалось загрузить трек", zap.String("id", rec.ID), zap.Error(err))
		return fmt.Errorf("ошибка загрузки трека: %w", err)
	}

	e.mutex.Lock()
	resource.SetVolume(e.volume)
	resource.SetLoop(e.loop)
	e.resource = resource
	e.mutex.Unlock()

	e.log.Debug("трек загружен", zap.String("id", rec.ID), zap.String("title", rec.Title))
	return nil
}

// unbind отвязывает и освобождает текущий ресурс, возвращая новое поколение
func (e *Engine) unbind() uint64 {
	e.mutex.Lock()
	old := e.resource
	e.resource = nil
	e.playing = false
	e.gen++
	gen := e.gen
	e.mutex.Unlock()

	if old != nil {
		old.Pause()
		if err := old.Close(); err != nil {
			e.log.Warn("ошибка освобождения ресурса", zap.Error(err))
		}
	}
	return gen
}

// Play дожидается загрузки и запускает воспроизведение
func (e *Engine) Play(ctx context.Context) error {
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.resource == nil {
		return ErrNothingLoaded
	}
	if err := e.resource.Play(); err != nil {
		e.playing = false
		return fmt.Errorf("ошибка воспроизведения: %w", err)
	}
	e.playing = true
	return nil
}

// Pause приостанавливает воспроизведение
func (e *Engine) Pause() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.resource != nil {
		e.resource.Pause()
	}
	e.playing = false
}

// SetVolume задает громкость, значение ограничивается диапазоном 0..1
func (e *Engine) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = math.Max(0, math.Min(1, v))

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.volume = v
	if e.resource != nil {
		e.resource.SetVolume(v)
	}
}

// SetCurrentTime перематывает на позицию в секундах.
// Нечисловые значения игнорируются, отрицательные приводятся к началу трека.
func (e *Engine) SetCurrentTime(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	seconds = math.Max(0, seconds)

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.resource == nil {
		return
	}
	pos := time.Duration(seconds * float64(time.Second))
	if err := e.resource.Seek(pos); err != nil {
		e.log.Warn("ошибка перемотки", zap.Duration("position", pos), zap.Error(err))
	}
}

// CurrentTime возвращает текущую позицию
func (e *Engine) CurrentTime() time.Duration {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.resource == nil {
		return 0
	}
	return e.resource.Position()
}

// Duration возвращает длительность загруженного трека
func (e *Engine) Duration() time.Duration {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.resource == nil {
		return 0
	}
	return e.resource.Duration()
}

// SetLoop включает или выключает повтор трека
func (e *Engine) SetLoop(loop bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.loop = loop
	if e.resource != nil {
		e.resource.SetLoop(loop)
	}
}

// Cleanup освобождает привязанный ресурс; повторный вызов ничего не делает
func (e *Engine) Cleanup() {
	_ = e.acquire(context.Background())
	defer e.release()

	e.mutex.Lock()
	bound := e.resource != nil
	e.mutex.Unlock()

	if bound {
		e.unbind()
		e.log.Debug("ресурс воспроизведения освобожден")
	}
}

// IsPlaying возвращает true, если трек воспроизводится
func (e *Engine) IsPlaying() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.playing
}

// Status возвращает снимок состояния плеера
func (e *Engine) Status() Status {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	status := Status{
		IsPlaying: e.playing,
		Volume:    e.volume,
		Loop:      e.loop,
	}
	if e.resource != nil {
		status.Current = e.resource.Position()
		status.Total = e.resource.Duration()
	}
	return status
}

// AddListener подписывает на события; возвращенная функция отменяет подписку
func (e *Engine) AddListener(l Listener) (remove func()) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			e.listenersMu.Lock()
			defer e.listenersMu.Unlock()
			delete(e.listeners, id)
		})
	}
}

// handleEnded обрабатывает окончание трека
func (e *Engine) handleEnded(gen uint64, id string) {
	e.mutex.Lock()
	if gen != e.gen {
		e.mutex.Unlock()
		return
	}
	if !e.loop {
		e.playing = false
	}
	e.mutex.Unlock()

	e.dispatch(gen, Event{Kind: EventEnded, TrackID: id})
}

// dispatch рассылает событие подписчикам; события освобожденного ресурса отбрасываются
func (e *Engine) dispatch(gen uint64, ev Event) {
	e.mutex.Lock()
	stale := gen != e.gen
	e.mutex.Unlock()
	if stale {
		return
	}

	e.listenersMu.Lock()
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.listenersMu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
