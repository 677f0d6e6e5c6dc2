// Package scanner matches the lines of one file against a content pattern.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dshills/projfind/internal/project/search/pattern"
	"github.com/dshills/projfind/internal/project/vfs"
)

// MaxLineLen is the longest line the scanner accepts.
const MaxLineLen = 1 << 20

// Reasons a file is skipped.
var (
	// ErrBinary indicates the file does not look like UTF-8 text.
	ErrBinary = errors.New("binary or non-UTF-8 content")

	// ErrTooLarge indicates the file exceeds Options.MaxFileSize.
	ErrTooLarge = errors.New("file too large")

	// ErrLineTooLong indicates a line longer than MaxLineLen.
	ErrLineTooLong = errors.New("line too long")
)

// ReadError reports a file that could not be scanned.
type ReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Line is one matching line.
type Line struct {
	Number int    // 1-based
	Text   string // trailing whitespace trimmed
}

// Options controls a scan.
type Options struct {
	// MaxFileSize skips files larger than this many bytes. Zero means no limit.
	MaxFileSize int64

	// Stats, when non-nil, accumulates across calls.
	Stats *Stats
}

// Stats counts scanner work.
type Stats struct {
	Files int
	Bytes int64
	Lines int
}

// Scan reads path line by line and returns the lines pat matches, in file
// order. pat is applied to each whole line and should come from
// pattern.CompileLine. A nil pat returns nil, nil: the caller treats the file
// as a name-only match without reading it.
//
// ctx is checked once before the file is opened; a file in progress is always
// finished. Any failure to read the file as text is returned as a *ReadError.
func Scan(ctx context.Context, fsys vfs.VFS, path string, pat *pattern.Pattern, opts Options) ([]Line, error) {
	if pat == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}

	if opts.MaxFileSize > 0 {
		info, err := fsys.Stat(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		if info.Size() > opts.MaxFileSize {
			return nil, &ReadError{Path: path, Err: ErrTooLarge}
		}
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	stats.Files++

	br := bufio.NewReaderSize(f, vfs.SniffLen)
	head, _ := br.Peek(vfs.SniffLen)
	if vfs.IsBinary(head) {
		return nil, &ReadError{Path: path, Err: ErrBinary}
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLen)

	var lines []Line
	for n := 1; sc.Scan(); n++ {
		raw := sc.Bytes()
		stats.Bytes += int64(len(raw)) + 1
		if n == 1 {
			raw = vfs.StripBOM(raw)
		}
		if !vfs.IsText(raw) {
			return nil, &ReadError{Path: path, Err: ErrBinary}
		}

		text := string(raw)
		if pat.Match(text) {
			lines = append(lines, Line{
				Number: n,
				Text:   strings.TrimRightFunc(text, unicode.IsSpace),
			})
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			err = ErrLineTooLong
		}
		return nil, &ReadError{Path: path, Err: err}
	}

	stats.Lines += len(lines)
	return lines, nil
}
