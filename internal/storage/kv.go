// Package storage предоставляет постоянное хранилище ключ-значение на основе Badger
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// ErrNotFound возвращается, если ключ отсутствует
var ErrNotFound = errors.New("ключ не найден")

// KV примитив постоянного хранилища: чтение, запись и удаление по ключу
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// BadgerKV реализация KV поверх базы Badger
type BadgerKV struct {
	db  *badger.DB
	log *zap.Logger
}

// Open открывает базу Badger в указанном каталоге.
// Пустой путь открывает базу в памяти.
func Open(path string, log *zap.Logger) (*BadgerKV, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil // Собственное логирование Badger отключено

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы badger: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("база badger открыта", zap.String("path", path))

	return &BadgerKV{db: db, log: log}, nil
}

// OpenInMemory открывает базу в памяти (для тестов)
func OpenInMemory() (*BadgerKV, error) {
	return Open("", nil)
}

// Get возвращает значение по ключу или ErrNotFound
func (s *BadgerKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа %s: %w", key, err)
	}
	return value, nil
}

// Set сохраняет значение по ключу
func (s *BadgerKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("ошибка записи ключа %s: %w", key, err)
	}
	return nil
}

// Delete удаляет ключ; отсутствие ключа не является ошибкой
func (s *BadgerKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления ключа %s: %w", key, err)
	}
	return nil
}

// Keys возвращает все ключи с указанным префиксом
func (s *BadgerKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления ключей: %w", err)
	}
	return keys, nil
}

// Close закрывает базу
func (s *BadgerKV) Close() error {
	s.log.Debug("закрытие базы badger")
	return s.db.Close()
}
