package contraptions

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// FileStore keeps the population as a JSON array in a single file. Paths
// ending in .zst are zstd-compressed.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Name returns the file path.
func (s *FileStore) Name() string {
	return s.path
}

func (s *FileStore) compressed() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".zst")
}

// Save writes records to a temporary file and renames it over the target.
func (s *FileStore) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := s.encode(tmp, records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("contraptions: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) encode(w io.Writer, records []Record) error {
	var enc *zstd.Encoder
	if s.compressed() {
		var err error
		enc, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		defer enc.Close()
		w = enc
	}

	bw := bufio.NewWriterSize(w, 64*1024)
	je := json.NewEncoder(bw)
	je.SetIndent("", "  ")
	if err := je.Encode(records); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if enc != nil {
		return enc.Close()
	}
	return nil
}

// Load reads the file. A missing file is an empty population.
func (s *FileStore) Load(ctx context.Context) ([]Record, []LoadFailure, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	raw, err := s.read()
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("contraptions: %s: %w", s.path, err)
	}

	records := make([]Record, 0, len(entries))
	var failures []LoadFailure
	for i, entry := range entries {
		source := fmt.Sprintf("%s[%d]", s.path, i)
		var rec Record
		if err := json.Unmarshal(entry, &rec); err != nil {
			failures = append(failures, LoadFailure{Source: source, Err: err})
			continue
		}
		if err := rec.validate(); err != nil {
			failures = append(failures, LoadFailure{Source: source, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, failures, nil
}

func (s *FileStore) read() ([]byte, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !s.compressed() {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
