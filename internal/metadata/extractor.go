// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
	"go.uber.org/zap"
)

// UnknownArtist исполнитель по умолчанию, если теги не найдены
const UnknownArtist = "Unknown Artist"

// Probe читает исполнителя средствами платформы (встроенные метаданные медиа).
// Пустая строка или ошибка означают, что нужно перейти к разбору ID3.
type Probe func(ctx context.Context, buf []byte) (string, error)

// TagProbe читает исполнителя через github.com/dhowden/tag
func TagProbe(_ context.Context, buf []byte) (string, error) {
	m, err := tag.ReadFrom(bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	return m.Artist(), nil
}

// Extractor извлекает исполнителя из аудиоданных
type Extractor struct {
	probe Probe
	log   *zap.Logger
}

// NewExtractor создает экстрактор с пробой dhowden/tag
func NewExtractor(log *zap.Logger) *Extractor {
	return NewExtractorWithProbe(TagProbe, log)
}

// NewExtractorWithProbe создает экстрактор с заданной пробой (nil отключает пробу)
func NewExtractorWithProbe(probe Probe, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{probe: probe, log: log}
}

// ExtractArtist возвращает исполнителя трека; никогда не возвращает ошибку.
// Порядок: проба платформы, ID3v2 (TPE1/TPE2), ID3v1, UnknownArtist.
func (e *Extractor) ExtractArtist(ctx context.Context, buf []byte) string {
	if artist := e.runProbe(ctx, buf); artist != "" {
		return artist
	}

	if artist := parseID3v2Artist(buf); artist != "" {
		return artist
	}

	if artist := parseID3v1Artist(buf); artist != "" {
		return artist
	}

	return UnknownArtist
}

// runProbe вызывает пробу, перехватывая ошибки и панику разборщика
func (e *Extractor) runProbe(ctx context.Context, buf []byte) (artist string) {
	if e.probe == nil || len(buf) == 0 {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("паника при чтении метаданных", zap.Any("panic", r))
			artist = ""
		}
	}()

	value, err := e.probe(ctx, buf)
	if err != nil {
		e.log.Debug("встроенные метаданные недоступны", zap.Error(err))
		return ""
	}
	return cleanText(value)
}

// TitleFromName возвращает название трека: имя файла без расширения
func TitleFromName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Duration получает длительность MP3 из буфера
func Duration(buf []byte) (time.Duration, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(buf)))
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// FormatDuration форматирует длительность трека в виде m:ss
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
