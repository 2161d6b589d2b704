// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию
const (
	DefaultDataDir   = "~/.jukebox.d"
	DefaultMusicDir  = "~/Music"
	DefaultChunkSize = 10
	DefaultVolume    = 1.0
	DefaultLogLevel  = "info"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	DataDir       string  `yaml:"data_dir"`
	MusicDir      string  `yaml:"music_dir"`
	ChunkSize     int     `yaml:"chunk_size"`
	Volume        float64 `yaml:"volume"`
	LogLevel      string  `yaml:"log_level"`
	LogFile       string  `yaml:"log_file"`
	LogMaxSize    int     `yaml:"log_max_size"` // Мегабайты
	LogMaxBackups int     `yaml:"log_max_backups"`
	LogMaxAge     int     `yaml:"log_max_age"` // Дни
	LogConsole    bool    `yaml:"log_console"` // Дублировать лог в stderr
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Если файла нет, используются значения по умолчанию.
// Переменные окружения (и файл .env) имеют приоритет над файлом.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	// .env не обязателен, существующие переменные окружения не перезаписываются
	_ = godotenv.Load()
	applyEnv(config)

	// Устанавливаем значения по умолчанию, если они не заданы
	if config.DataDir == "" {
		config.DataDir = DefaultDataDir
	}
	if config.MusicDir == "" {
		config.MusicDir = DefaultMusicDir
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.Volume <= 0 || config.Volume > 1 {
		config.Volume = DefaultVolume
	}
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}

	// Раскрываем тильду в путях
	config.DataDir = strings.Replace(config.DataDir, "~", home, 1)
	config.MusicDir = strings.Replace(config.MusicDir, "~", home, 1)
	config.LogFile = strings.Replace(config.LogFile, "~", home, 1)

	return config, nil
}

// applyEnv переопределяет поля конфигурации из переменных окружения
func applyEnv(config *Config) {
	overrides := map[string]*string{
		"JUKEBOX_DATA_DIR":  &config.DataDir,
		"JUKEBOX_MUSIC_DIR": &config.MusicDir,
		"JUKEBOX_LOG_LEVEL": &config.LogLevel,
		"JUKEBOX_LOG_FILE":  &config.LogFile,
	}
	for key, field := range overrides {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*field = value
		}
	}

	if value, ok := os.LookupEnv("JUKEBOX_LOG_CONSOLE"); ok {
		if console, err := strconv.ParseBool(value); err == nil {
			config.LogConsole = console
		}
	}
}
