package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hazadus/go-jukebox/internal/catalog"
	"github.com/hazadus/go-jukebox/internal/storage"
)

// mp3Bytes минимальное содержимое, которое распознается как audio/mpeg
func mp3Bytes(seed byte) []byte {
	return append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), seed, seed, seed)
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp3"), mp3Bytes(1))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("просто текст"))
	writeFile(t, filepath.Join(dir, ".hidden.mp3"), mp3Bytes(2))
	writeFile(t, filepath.Join(dir, ".cache", "c.mp3"), mp3Bytes(3))
	writeFile(t, filepath.Join(dir, "sub", "b.mp3"), mp3Bytes(4))

	files, err := ScanDir(dir)
	require.NoError(t, err)

	var names []string
	var audio []string
	for _, f := range files {
		names = append(names, f.Name())
		if IsAudio(f.ContentType()) {
			audio = append(audio, f.Name())
		}
	}
	sort.Strings(names)
	sort.Strings(audio)

	assert.Equal(t, []string{"a.mp3", "b.mp3", "notes.txt"}, names)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, audio)
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.mp3")
	writeFile(t, single, mp3Bytes(1))
	writeFile(t, filepath.Join(dir, "album", "one.mp3"), mp3Bytes(2))
	writeFile(t, filepath.Join(dir, "album", "two.mp3"), mp3Bytes(3))

	files, err := OpenFiles([]string{single, filepath.Join(dir, "album")})
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "single.mp3", files[0].Name())
	assert.Equal(t, "audio/mpeg", files[0].ContentType())

	content, err := files[0].ReadAll()
	require.NoError(t, err)
	assert.Equal(t, mp3Bytes(1), content)

	_, err = OpenFiles([]string{filepath.Join(dir, "missing.mp3")})
	assert.Error(t, err)
}

func TestWatcherIngestsNewFiles(t *testing.T) {
	dir := t.TempDir()

	kv, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer kv.Close()

	store := catalog.New(kv)
	pipeline := New(store, fixedExtractor("Band"))

	watcher := NewWatcher(pipeline, dir, zaptest.NewLogger(t))
	watcher.SetDebounce(50 * time.Millisecond)

	results := make(chan Summary, 16)
	watcher.OnIngest = func(s Summary, err error) {
		assert.NoError(t, err)
		results <- s
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Наблюдатель запускается асинхронно, поэтому пишем файлы до первого срабатывания
	deadline := time.After(10 * time.Second)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	added := 0
	for i := 0; added == 0; i++ {
		select {
		case s := <-results:
			added += s.Added
		case <-ticker.C:
			writeFile(t, filepath.Join(dir, fmt.Sprintf("new-%d.mp3", i)), mp3Bytes(byte(i)))
		case <-deadline:
			t.Fatal("наблюдатель не добавил файлы")
		}
	}

	cancel()
	require.NoError(t, <-done)
	assert.NotEmpty(t, store.AllTracks(context.Background()))
}
