package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/record"
	"github.com/gosuda/rentals/internal/store"
)

const (
	maxLineBytes = 1 << 20
	// rawPreview bounds how much of an oversized line ends up in a warning.
	rawPreview = 80
)

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is drained to its end and returned cut to that length with
// tooLong set, so reading can continue with the following line.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if room := maxLineBytes - len(buf); len(chunk) > room {
			chunk = chunk[:room]
			tooLong = true
		}
		buf = append(buf, chunk...)
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// load decodes every line of path into dst. A missing file is an empty one.
// Bad lines and duplicate IDs are skipped with a warning; an I/O error stops
// reading that file but keeps what was decoded before it.
func load[T domain.Entity](path string, format record.Format[T], dst *store.Store[T], rep *Report) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("file", path).Msg("flatfile.load: no file, treating as empty")
		return
	}
	if err != nil {
		ioErr := &domain.IOError{Op: "open", Path: path, Err: err}
		log.Warn().Err(ioErr).Str("kind", string(format.Kind)).Msg("flatfile.load: skipping file")
		rep.warn(ioErr)
		return
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)

	lineNo := 0
	for {
		line, tooLong, err := readLine(r)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			ioErr := &domain.IOError{Op: "read", Path: path, Err: err}
			log.Warn().Err(ioErr).Int("line", lineNo).Msg("flatfile.load: stopped reading file")
			rep.warn(ioErr)
			return
		}
		lineNo++

		if tooLong {
			rep.Read[format.Kind]++
			err := &domain.MalformedRecordError{
				Position: domain.Position{File: path, Line: lineNo},
				Kind:     format.Kind,
				Raw:      line[:rawPreview] + "...",
				Err:      fmt.Errorf("line exceeds %d bytes", maxLineBytes),
			}
			log.Warn().Err(err).Str("file", path).Int("line", lineNo).Msg("flatfile.load: skipping oversized line")
			rep.warn(err)
			continue
		}

		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rep.Read[format.Kind]++

		e, err := format.Decode(line)
		if err != nil {
			err = domain.WithPosition(err, path, lineNo, line)
			log.Warn().Err(err).Str("file", path).Int("line", lineNo).Msg("flatfile.load: skipping record")
			rep.warn(err)
			continue
		}

		if dst.Has(e.EntityID()) {
			err := fmt.Errorf("%s:%d: duplicate %s id %q: %w", path, lineNo, format.Kind, e.EntityID(), domain.ErrConflict)
			log.Warn().Err(err).Msg("flatfile.load: skipping duplicate")
			rep.warn(err)
			continue
		}
		dst.Upsert(e)
	}
}

// stagedFile is a fully written temporary file waiting to replace path.
type stagedFile struct {
	path string
	tmp  string
}

func (s stagedFile) commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		_ = os.Remove(s.tmp)
		return &domain.IOError{Op: "replace", Path: s.path, Err: err}
	}
	return nil
}

func (s stagedFile) discard() {
	if err := os.Remove(s.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", s.tmp).Msg("flatfile: failed to remove staged file")
	}
}

// stage encodes items and writes them, one per line, to a temporary file next
// to path. The temporary file is removed on every failure path.
func stage[T domain.Entity](createTemp func(dir, pattern string) (*os.File, error), path string, format record.Format[T], items []T) (sf stagedFile, err error) {
	lines := make([]string, 0, len(items))
	for _, e := range items {
		line, encErr := format.Encode(e)
		if encErr != nil {
			return stagedFile{}, fmt.Errorf("%s: %w", filepath.Base(path), encErr)
		}
		lines = append(lines, line)
	}

	tmp, err := createTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return stagedFile{}, &domain.IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err = w.WriteString(line + "\n"); err != nil {
			return stagedFile{}, &domain.IOError{Op: "write", Path: path, Err: err}
		}
	}
	if err = w.Flush(); err != nil {
		return stagedFile{}, &domain.IOError{Op: "write", Path: path, Err: err}
	}
	if err = tmp.Chmod(0o644); err != nil {
		return stagedFile{}, &domain.IOError{Op: "chmod", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return stagedFile{}, &domain.IOError{Op: "sync", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return stagedFile{}, &domain.IOError{Op: "close", Path: path, Err: err}
	}

	return stagedFile{path: path, tmp: tmp.Name()}, nil
}
