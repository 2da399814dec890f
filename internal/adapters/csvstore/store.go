package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Store appends CSV lines to per-source logs. Every append opens, writes one
// complete line with a single write call, and closes the file again.
type Store struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

func NewStore() *Store {
	return &Store{dirPerm: 0o755, filePerm: 0o644}
}

// EnsureHeader creates path with the schema header when it is absent or empty.
func (s *Store) EnsureHeader(path string, schema domain.Schema) error {
	stat, err := os.Stat(path)
	if err == nil && stat.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return classify("stat", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), s.dirPerm); err != nil {
		return classify("mkdir", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, s.filePerm)
	if err != nil {
		return classify("open", path, err)
	}
	defer f.Close()

	// another writer may have won the race between Stat and OpenFile
	if stat, err := f.Stat(); err == nil && stat.Size() > 0 {
		return nil
	}

	line, err := encodeLine(schema.Names())
	if err != nil {
		return err
	}
	return writeAll(f, path, line)
}

// Append writes record as one line. A torn final line left by a crashed writer
// is terminated first so the new record starts on its own line.
func (s *Store) Append(path string, record []string) error {
	line, err := encodeLine(record)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, s.filePerm)
	if err != nil {
		return classify("open", path, err)
	}
	defer f.Close()

	torn, err := endsMidLine(f)
	if err != nil {
		return classify("stat", path, err)
	}
	if torn {
		line = append([]byte{'\n'}, line...)
	}
	return writeAll(f, path, line)
}

func endsMidLine(f *os.File) (bool, error) {
	stat, err := f.Stat()
	if err != nil {
		return false, err
	}
	if stat.Size() == 0 {
		return false, nil
	}
	var last [1]byte
	if _, err := f.ReadAt(last[:], stat.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return last[0] != '\n', nil
}

func writeAll(f *os.File, path string, line []byte) error {
	n, err := f.Write(line)
	if err != nil {
		return classify("write", path, err)
	}
	if n < len(line) {
		return classify("write", path, io.ErrShortWrite)
	}
	return nil
}

func encodeLine(record []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func classify(op, path string, err error) error {
	if IsPersistent(err) {
		return fmt.Errorf("%s %s: %w: %w", op, path, ports.ErrPersistent, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}

// IsPersistent reports whether err is an I/O failure that will not clear on its own.
func IsPersistent(err error) bool {
	switch {
	case errors.Is(err, ports.ErrPersistent),
		errors.Is(err, os.ErrPermission),
		errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.EDQUOT),
		errors.Is(err, syscall.EROFS):
		return true
	}
	return false
}

var _ ports.SampleWriter = (*Store)(nil)
