package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
)

// DefaultSampleRate частота, на которой инициализируются динамики
const DefaultSampleRate = beep.SampleRate(44100)

// progressInterval период уведомлений о позиции
const progressInterval = time.Second

// BeepTransport воспроизводит MP3 через github.com/gopxl/beep
type BeepTransport struct {
	mutex         sync.Mutex
	sampleRate    beep.SampleRate
	isInitialized bool
}

// NewBeepTransport создает транспорт; динамики инициализируются при первой загрузке
func NewBeepTransport() *BeepTransport {
	return &BeepTransport{sampleRate: DefaultSampleRate}
}

// Open декодирует MP3 из буфера и ставит трек на динамики в состоянии паузы
func (t *BeepTransport) Open(ctx context.Context, buf []byte, hooks Hooks) (Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(buf)))
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования MP3: %w", err)
	}

	if err := t.initSpeaker(); err != nil {
		streamer.Close()
		return nil, err
	}

	res := &beepResource{
		src:     streamer,
		format:  format,
		outRate: t.sampleRate,
		hooks:   hooks,
		done:    make(chan struct{}),
	}
	res.track = &trackStreamer{src: streamer, onEnd: res.ended, active: true}
	res.ctrl = &beep.Ctrl{Streamer: res.chain(), Paused: true}
	res.volume = &effects.Volume{Streamer: res.ctrl, Base: 2}
	res.enqueue = speaker.Play

	res.inMixer = true
	res.enqueue(mixerEntry{res: res})
	go res.monitorProgress()

	return res, nil
}

// initSpeaker инициализирует динамики (только один раз)
func (t *BeepTransport) initSpeaker() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.isInitialized {
		return nil
	}
	if err := speaker.Init(t.sampleRate, t.sampleRate.N(time.Second/5)); err != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}
	t.isInitialized = true
	return nil
}

// beepResource трек, поставленный на динамики
type beepResource struct {
	src     beep.StreamSeekCloser
	format  beep.Format
	outRate beep.SampleRate
	hooks   Hooks
	track   *trackStreamer
	ctrl    *beep.Ctrl
	volume  *effects.Volume

	// Трек стоит в микшере, пока тот не получил от него ok == false
	inMixer bool
	enqueue func(...beep.Streamer)

	done      chan struct{}
	closeOnce sync.Once
}

// chain приводит трек к частоте динамиков
func (r *beepResource) chain() beep.Streamer {
	if r.format.SampleRate == r.outRate {
		return r.track
	}
	return beep.Resample(4, r.format.SampleRate, r.outRate, r.track)
}

func (r *beepResource) Play() error {
	speaker.Lock()
	if !r.track.active {
		if r.src.Position() >= r.src.Len() {
			if err := r.src.Seek(0); err != nil {
				speaker.Unlock()
				return fmt.Errorf("ошибка перемотки в начало: %w", err)
			}
		}
		r.track.active = true
		r.ctrl.Streamer = r.chain()
	}
	r.ctrl.Paused = false
	readd := !r.inMixer
	r.inMixer = true
	speaker.Unlock()

	// Доигравший трек уже снят с микшера
	if readd {
		r.enqueue(mixerEntry{res: r})
	}
	return nil
}

func (r *beepResource) Pause() {
	speaker.Lock()
	r.ctrl.Paused = true
	speaker.Unlock()
}

func (r *beepResource) Seek(pos time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()

	n := r.format.SampleRate.N(pos)
	if last := r.src.Len() - 1; n > last {
		n = max(last, 0)
	}
	return r.src.Seek(n)
}

func (r *beepResource) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return r.format.SampleRate.D(r.src.Position())
}

func (r *beepResource) Duration() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return r.format.SampleRate.D(r.src.Len())
}

func (r *beepResource) SetVolume(v float64) {
	speaker.Lock()
	defer speaker.Unlock()

	if v <= 0 {
		r.volume.Silent = true
		return
	}
	r.volume.Silent = false
	r.volume.Volume = math.Log2(v)
}

func (r *beepResource) SetLoop(loop bool) {
	speaker.Lock()
	r.track.loop = loop
	speaker.Unlock()
}

func (r *beepResource) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)

		speaker.Lock()
		r.ctrl.Streamer = nil // Микшер снимет трек при следующем чтении
		r.track.active = false
		speaker.Unlock()

		err = r.src.Close()
	})
	return err
}

// ended вызывается из потока динамиков, поэтому уведомление уходит в отдельную горутину
func (r *beepResource) ended() {
	select {
	case <-r.done:
		return
	default:
	}
	if r.hooks.OnEnded != nil {
		go r.hooks.OnEnded()
	}
}

// monitorProgress отправляет текущую позицию раз в секунду
func (r *beepResource) monitorProgress() {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			speaker.Lock()
			playing := r.track.active && !r.ctrl.Paused
			current := r.format.SampleRate.D(r.src.Position())
			speaker.Unlock()

			if playing && r.hooks.OnTimeUpdate != nil {
				r.hooks.OnTimeUpdate(current)
			}
		}
	}
}

// mixerEntry отмечает момент, когда микшер снимает трек
type mixerEntry struct {
	res *beepResource
}

func (m mixerEntry) Stream(samples [][2]float64) (int, bool) {
	n, ok := m.res.volume.Stream(samples)
	if !ok {
		m.res.inMixer = false
	}
	return n, ok
}

func (m mixerEntry) Err() error {
	return m.res.volume.Err()
}

// trackStreamer читает трек и при окончании либо перематывает его в начало, либо завершает.
// Все поля меняются только под speaker.Lock.
type trackStreamer struct {
	src    beep.StreamSeeker
	onEnd  func()
	loop   bool
	active bool
}

func (s *trackStreamer) Stream(samples [][2]float64) (int, bool) {
	if !s.active {
		return 0, false
	}

	filled := 0
	rewound := false
	for filled < len(samples) {
		n, ok := s.src.Stream(samples[filled:])
		filled += n
		if ok && n > 0 {
			rewound = false
			continue
		}

		if s.loop && !rewound && s.src.Len() > 0 {
			if err := s.src.Seek(0); err == nil {
				rewound = true
				continue
			}
		}

		s.active = false
		if s.onEnd != nil {
			s.onEnd()
		}
		return filled, filled > 0
	}
	return filled, true
}

func (s *trackStreamer) Err() error {
	return s.src.Err()
}
