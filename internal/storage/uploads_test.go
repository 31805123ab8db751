package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

type testFile struct {
	name    string
	content []byte
}

func makeFileHeaders(t *testing.T, files []testFile) []*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func newTestStore(t *testing.T, maxSize int64) (*FileStore, string) {
	dir := t.TempDir()
	store := NewFileStore(config.UploadConfig{Dir: dir, MaxFileSize: maxSize}, zap.NewNop())
	return store, dir
}

func TestSaveAllWritesFiles(t *testing.T) {
	store, _ := newTestStore(t, 1<<20)
	headers := makeFileHeaders(t, []testFile{
		{name: "report.pdf", content: []byte("pdf-bytes")},
		{name: "screenshot.png", content: []byte("png-bytes")},
	})

	saved, err := store.SaveAll("t1", headers)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 saved files, got %d", len(saved))
	}

	for _, file := range saved {
		content, err := os.ReadFile(file.FilePath)
		if err != nil {
			t.Fatalf("read back %s: %v", file.FilePath, err)
		}
		if int64(len(content)) != file.FileSize {
			t.Errorf("size mismatch for %s: %d vs %d", file.FileName, len(content), file.FileSize)
		}
		if !strings.Contains(file.FilePath, "/t1/") {
			t.Errorf("expected per-ticket directory, got %s", file.FilePath)
		}
	}
}

func TestSaveAllSkipsOversizedFiles(t *testing.T) {
	store, _ := newTestStore(t, 10)
	headers := makeFileHeaders(t, []testFile{
		{name: "small.txt", content: []byte("ok")},
		{name: "big.bin", content: bytes.Repeat([]byte("x"), 100)},
	})

	saved, err := store.SaveAll("t1", headers)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected oversized file skipped, got %d saved", len(saved))
	}
	if saved[0].FileName != "small.txt" {
		t.Errorf("expected small.txt, got %s", saved[0].FileName)
	}
}

func TestSaveAllNoFiles(t *testing.T) {
	store, dir := newTestStore(t, 1<<20)
	saved, err := store.SaveAll("t1", nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved != nil {
		t.Fatalf("expected nil result, got %v", saved)
	}
	if _, err := os.Stat(dir + "/t1"); !os.IsNotExist(err) {
		t.Error("expected no ticket directory to be created")
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"my file (1).png", "my_file__1_.png"},
		{"../../etc/passwd", "passwd"},
		{"päck@ge.zip", "p_ck_ge.zip"},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
