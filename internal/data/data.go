// Package data содержит модель трека библиотеки и YAML-снимок каталога
package data

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlaceholderDuration длительность трека, пока она не известна
const PlaceholderDuration = "0:00"

// Track проекция трека для списков (без аудиоданных)
type Track struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Artist     string `json:"artist" yaml:"artist"`
	Duration   string `json:"duration" yaml:"duration"`
	LastPlayed int64  `json:"last_played" yaml:"last_played"` // Unix-время в миллисекундах
}

// Record полная запись трека вместе с аудиоданными
type Record struct {
	Track
	Data []byte `json:"data"`
}

// Index возвращает проекцию записи для каталога
func (r *Record) Index() Track {
	return r.Track
}

// Snapshot снимок каталога для экспорта
type Snapshot struct {
	ExportedAt time.Time `yaml:"exported_at"`
	Tracks     []Track   `yaml:"tracks"`
}

// NewSnapshot создает снимок из списка треков
func NewSnapshot(tracks []Track) *Snapshot {
	copied := make([]Track, len(tracks))
	copy(copied, tracks)
	return &Snapshot{
		ExportedAt: time.Now().UTC(),
		Tracks:     copied,
	}
}

// Save сохраняет снимок в файл
func (s *Snapshot) Save(filePath string) error {
	path, err := expandHome(filePath)
	if err != nil {
		return err
	}

	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла снимка: %w", err)
	}
	return nil
}

// FindTrack ищет трек по ID или по уникальному префиксу ID
func FindTrack(tracks []Track, idOrPrefix string) (*Track, error) {
	if idOrPrefix == "" {
		return nil, fmt.Errorf("пустой ID трека")
	}

	var found *Track
	for i := range tracks {
		if tracks[i].ID == idOrPrefix {
			return &tracks[i], nil
		}
		if strings.HasPrefix(tracks[i].ID, idOrPrefix) {
			if found != nil {
				return nil, fmt.Errorf("префикс %q соответствует нескольким трекам", idOrPrefix)
			}
			found = &tracks[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("трека с ID %s не найдено", idOrPrefix)
	}
	return found, nil
}

func expandHome(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(filePath, "~", home, 1), nil
}
