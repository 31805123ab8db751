package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SavedFile describes a file persisted to the upload store.
type SavedFile struct {
	FileName string
	FilePath string
	FileSize int64
	MimeType string
}

// FileStore writes uploaded attachments to disk under a per-ticket directory.
// Oversized files are skipped rather than failing the whole submission, and a
// write failure for one file never affects the others.
type FileStore struct {
	dir     string
	maxSize int64
	logger  *zap.Logger
}

// NewFileStore creates the store rooted at the configured upload directory.
func NewFileStore(cfg config.UploadConfig, logger *zap.Logger) *FileStore {
	return &FileStore{dir: cfg.Dir, maxSize: cfg.MaxFileSize, logger: logger}
}

// SaveAll persists the given multipart files for a ticket concurrently and
// returns metadata for every file that made it to disk, in the original
// order. Files above the size limit, and files whose write fails, are logged
// and omitted from the result.
func (s *FileStore) SaveAll(ticketID string, files []*multipart.FileHeader) ([]SavedFile, error) {
	if len(files) == 0 {
		return nil, nil
	}

	ticketDir := filepath.Join(s.dir, ticketID)
	if err := os.MkdirAll(ticketDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	results := make([]*SavedFile, len(files))
	var wg sync.WaitGroup
	for i, fh := range files {
		if s.maxSize > 0 && fh.Size > s.maxSize {
			s.logger.Warn("skipping oversized upload",
				zap.String("ticket_id", ticketID),
				zap.String("file", fh.Filename),
				zap.Int64("size", fh.Size))
			continue
		}
		wg.Add(1)
		go func(idx int, fh *multipart.FileHeader) {
			defer wg.Done()
			saved, err := s.saveOne(ticketDir, idx, fh)
			if err != nil {
				s.logger.Warn("failed to store upload",
					zap.String("ticket_id", ticketID),
					zap.String("file", fh.Filename),
					zap.Error(err))
				return
			}
			results[idx] = saved
		}(i, fh)
	}
	wg.Wait()

	saved := make([]SavedFile, 0, len(files))
	for _, r := range results {
		if r != nil {
			saved = append(saved, *r)
		}
	}
	return saved, nil
}

func (s *FileStore) saveOne(ticketDir string, idx int, fh *multipart.FileHeader) (*SavedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	name := fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), idx, SanitizeFileName(fh.Filename))
	path := filepath.Join(ticketDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return &SavedFile{
		FileName: fh.Filename,
		FilePath: path,
		FileSize: written,
		MimeType: mime,
	}, nil
}

// SanitizeFileName replaces anything outside [a-zA-Z0-9.-] with an underscore
// so client-supplied names cannot escape the upload directory.
func SanitizeFileName(name string) string {
	base := filepath.Base(name)
	return unsafeChars.ReplaceAllString(base, "_")
}
