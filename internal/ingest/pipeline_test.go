package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hazadus/go-jukebox/internal/catalog"
	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/metadata"
	"github.com/hazadus/go-jukebox/internal/storage"
)

// memoryFile файл в памяти с заданным типом
type memoryFile struct {
	name        string
	contentType string
	data        []byte
	err         error
}

func newMemoryFile(name, contentType string, data []byte) *memoryFile {
	return &memoryFile{name: name, contentType: contentType, data: data}
}

// newBrokenFile создает файл, чтение которого завершается ошибкой
func newBrokenFile(name, contentType string, err error) *memoryFile {
	return &memoryFile{name: name, contentType: contentType, err: err}
}

func (f *memoryFile) Name() string        { return f.name }
func (f *memoryFile) ContentType() string { return f.contentType }

func (f *memoryFile) ReadAll() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// recordingSaver запоминает размеры пакетов и может отказать на заданном вызове
type recordingSaver struct {
	mu      sync.Mutex
	batches [][]data.Record
	failOn  int
}

func (s *recordingSaver) SaveBatch(_ context.Context, records []data.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOn > 0 && len(s.batches)+1 == s.failOn {
		s.batches = append(s.batches, nil)
		return 0, errors.New("хранилище недоступно")
	}
	s.batches = append(s.batches, records)
	return len(records), nil
}

func (s *recordingSaver) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizes := make([]int, 0, len(s.batches))
	for _, b := range s.batches {
		sizes = append(sizes, len(b))
	}
	return sizes
}

// fixedExtractor возвращает заданного исполнителя
type fixedExtractor string

func (e fixedExtractor) ExtractArtist(context.Context, []byte) string {
	return string(e)
}

func audioFiles(n int) []File {
	files := make([]File, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, newMemoryFile(fmt.Sprintf("track-%02d.mp3", i), "audio/mpeg", []byte{byte(i + 1)}))
	}
	return files
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestIngestChunks(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor("Band"), WithLogger(zaptest.NewLogger(t)))

	summary, err := pipeline.Ingest(context.Background(), audioFiles(25), nil)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 10, 5}, saver.sizes())
	assert.Equal(t, Summary{Total: 25, Added: 25}, summary)
}

func TestIngestCustomChunkSize(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor("Band"), WithChunkSize(4))

	_, err := pipeline.Ingest(context.Background(), audioFiles(9), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 1}, saver.sizes())
}

func TestIngestFiltersNonAudio(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor("Band"))

	files := []File{
		newMemoryFile("cover.jpg", "image/jpeg", []byte{1}),
		newMemoryFile("song.mp3", "audio/mpeg", []byte{1}),
		newMemoryFile("notes.txt", "text/plain; charset=utf-8", []byte{1}),
		newMemoryFile("voice.wav", "Audio/WAV", []byte{1}),
	}

	summary, err := pipeline.Ingest(context.Background(), files, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, []int{2}, saver.sizes())
}

func TestIngestBuildsRecords(t *testing.T) {
	saver := &recordingSaver{}
	now := time.UnixMilli(1_700_000_000_000)
	pipeline := New(saver, fixedExtractor("Band"),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return now }))

	files := []File{newMemoryFile("Artist - Title.mp3", "audio/mpeg", []byte("ID3 data"))}
	_, err := pipeline.Ingest(context.Background(), files, nil)
	require.NoError(t, err)

	require.Len(t, saver.batches, 1)
	rec := saver.batches[0][0]
	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "Artist - Title", rec.Title)
	assert.Equal(t, "Band", rec.Artist)
	assert.Equal(t, data.PlaceholderDuration, rec.Duration)
	assert.Equal(t, now.UnixMilli(), rec.LastPlayed)
	assert.Equal(t, []byte("ID3 data"), rec.Data)
}

func TestIngestDefaultsToUnknownArtist(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor(""))

	_, err := pipeline.Ingest(context.Background(), audioFiles(1), nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.UnknownArtist, saver.batches[0][0].Artist)
}

func TestIngestCountsFailures(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor("Band"), WithLogger(zaptest.NewLogger(t)))

	files := append(audioFiles(3),
		newBrokenFile("broken.mp3", "audio/mpeg", errors.New("нет доступа")),
		newMemoryFile("empty.mp3", "audio/mpeg", nil),
	)

	var mu sync.Mutex
	var reports []Progress
	summary, err := pipeline.Ingest(context.Background(), files, func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, p)
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 5, Added: 3, Failed: 2}, summary)
	require.Len(t, reports, 5)
	for i, p := range reports {
		assert.Equal(t, i+1, p.Processed)
		assert.Equal(t, 5, p.Total)
	}
	assert.Equal(t, 2, reports[len(reports)-1].Failed)
}

func TestIngestDuplicateTitles(t *testing.T) {
	kv, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer kv.Close()

	store := catalog.New(kv)
	pipeline := New(store, metadata.NewExtractorWithProbe(nil, nil))
	ctx := context.Background()

	files := []File{
		newMemoryFile("Song.mp3", "audio/mpeg", []byte("first")),
		newMemoryFile("Song.wav", "audio/wav", []byte("second")),
	}

	summary, err := pipeline.Ingest(ctx, files, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)

	tracks := store.AllTracks(ctx)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Song", tracks[0].Title)
	assert.Equal(t, metadata.UnknownArtist, tracks[0].Artist)
}

func TestIngestStoreFailureAborts(t *testing.T) {
	saver := &recordingSaver{failOn: 2}
	pipeline := New(saver, fixedExtractor("Band"))

	var processed int
	summary, err := pipeline.Ingest(context.Background(), audioFiles(25), func(p Progress) {
		processed = p.Processed
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка сохранения пакета")

	// Первый пакет сохранен, третий не обрабатывался
	assert.Equal(t, []int{10, 0}, saver.sizes())
	assert.Equal(t, 10, summary.Added)
	assert.Equal(t, 20, processed)
}

func TestIngestCancelled(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor("Band"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Ingest(ctx, audioFiles(3), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, saver.sizes())
}

func TestIngestNothing(t *testing.T) {
	saver := &recordingSaver{}
	pipeline := New(saver, fixedExtractor("Band"))

	summary, err := pipeline.Ingest(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, saver.sizes())
}
