package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DiskFile файл на диске с определенным по содержимому типом
type DiskFile struct {
	path        string
	contentType string
}

// Name возвращает имя файла
func (f *DiskFile) Name() string {
	return filepath.Base(f.path)
}

// Path возвращает полный путь к файлу
func (f *DiskFile) Path() string {
	return f.path
}

// ContentType возвращает MIME-тип файла
func (f *DiskFile) ContentType() string {
	return f.contentType
}

// ReadAll читает файл целиком
func (f *DiskFile) ReadAll() ([]byte, error) {
	return os.ReadFile(f.path)
}

// OpenFile определяет тип файла по его содержимому
func OpenFile(path string) (*DiskFile, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка определения типа файла %s: %w", path, err)
	}
	return &DiskFile{path: path, contentType: mtype.String()}, nil
}

// OpenFiles открывает файлы и каталоги; каталоги обходятся рекурсивно
func OpenFiles(paths []string) ([]File, error) {
	var files []File
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка доступа к %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := ScanDir(path)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}

		file, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// ScanDir рекурсивно собирает обычные файлы каталога, пропуская скрытые
func ScanDir(root string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		file, err := OpenFile(path)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода каталога %s: %w", root, err)
	}
	return files, nil
}
