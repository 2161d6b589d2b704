// Package ingest содержит конвейер добавления аудиофайлов в каталог
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/metadata"
)

// DefaultChunkSize количество файлов в одном пакете
const DefaultChunkSize = 10

// ErrEmptyFile возвращается для файлов нулевой длины
var ErrEmptyFile = errors.New("пустой файл")

// File источник одного файла: имя, объявленный тип и содержимое
type File interface {
	Name() string
	ContentType() string
	ReadAll() ([]byte, error)
}

// Saver принимает пакет записей (реализуется catalog.Store)
type Saver interface {
	SaveBatch(ctx context.Context, records []data.Record) (int, error)
}

// ArtistExtractor определяет исполнителя по аудиоданным
type ArtistExtractor interface {
	ExtractArtist(ctx context.Context, buf []byte) string
}

// Progress состояние обработки после очередного файла
type Progress struct {
	Processed int
	Total     int
	Failed    int
}

// Summary итог добавления файлов
type Summary struct {
	Total   int // Аудиофайлов на входе
	Added   int // Новых треков в каталоге
	Skipped int // Пропущено как дубликаты
	Failed  int // Не удалось прочитать
}

// ProgressFunc получает прогресс после каждого файла
type ProgressFunc func(Progress)

// Pipeline добавляет файлы в каталог пакетами
type Pipeline struct {
	store     Saver
	extractor ArtistExtractor
	chunkSize int
	newID     func() string
	now       func() time.Time
	log       *zap.Logger
}

// Option настраивает Pipeline
type Option func(*Pipeline)

// WithChunkSize задает размер пакета
func WithChunkSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithIDGenerator задает генератор идентификаторов треков
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// WithClock задает источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger задает логгер
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New создает конвейер
func New(store Saver, extractor ArtistExtractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		extractor: extractor,
		chunkSize: DefaultChunkSize,
		newID:     uuid.NewString,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest обрабатывает файлы пакетами и сохраняет каждый пакет до начала следующего.
// Ошибка отдельного файла учитывается в Failed, ошибка каталога прерывает работу.
func (p *Pipeline) Ingest(ctx context.Context, files []File, onProgress ProgressFunc) (Summary, error) {
	audio := filterAudio(files)
	summary := Summary{Total: len(audio)}
	progress := Progress{Total: len(audio)}

	p.log.Info("начато добавление файлов",
		zap.Int("files", len(files)),
		zap.Int("audio", len(audio)))

	var mu sync.Mutex
	for start := 0; start < len(audio); start += p.chunkSize {
		if err := ctx.Err(); err != nil {
			summary.Failed = progress.Failed
			return summary, err
		}

		chunk := audio[start:min(start+p.chunkSize, len(audio))]
		results := make([]*data.Record, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.chunkSize)

		for i, file := range chunk {
			g.Go(func() error {
				rec, err := p.processFile(gctx, file)

				mu.Lock()
				defer mu.Unlock()

				progress.Processed++
				if err != nil {
					progress.Failed++
					p.log.Warn("не удалось обработать файл",
						zap.String("file", file.Name()),
						zap.Error(err))
				} else {
					results[i] = rec
				}
				if onProgress != nil {
					onProgress(progress)
				}
				return nil
			})
		}
		_ = g.Wait()

		batch := make([]data.Record, 0, len(chunk))
		for _, rec := range results {
			if rec != nil {
				batch = append(batch, *rec)
			}
		}
		if len(batch) == 0 {
			continue
		}

		added, err := p.store.SaveBatch(ctx, batch)
		if err != nil {
			summary.Failed = progress.Failed
			return summary, fmt.Errorf("ошибка сохранения пакета: %w", err)
		}
		summary.Added += added
		summary.Skipped += len(batch) - added
	}

	summary.Failed = progress.Failed
	p.log.Info("добавление файлов завершено",
		zap.Int("added", summary.Added),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// processFile читает файл и собирает полную запись трека
func (p *Pipeline) processFile(ctx context.Context, file File) (*data.Record, error) {
	buf, err := file.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if len(buf) == 0 {
		return nil, ErrEmptyFile
	}

	artist := metadata.UnknownArtist
	if p.extractor != nil {
		if a := p.extractor.ExtractArtist(ctx, buf); a != "" {
			artist = a
		}
	}

	return &data.Record{
		Track: data.Track{
			ID:         p.newID(),
			Title:      metadata.TitleFromName(file.Name()),
			Artist:     artist,
			Duration:   data.PlaceholderDuration,
			LastPlayed: p.now().UnixMilli(),
		},
		Data: buf,
	}, nil
}

// IsAudio сообщает, объявлен ли тип содержимого как аудио
func IsAudio(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "audio/")
}

func filterAudio(files []File) []File {
	audio := make([]File, 0, len(files))
	for _, f := range files {
		if f != nil && IsAudio(f.ContentType()) {
			audio = append(audio, f)
		}
	}
	return audio
}
