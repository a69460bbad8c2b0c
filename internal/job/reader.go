package job

// reader.go prepares dataset files for decoding without loading them into
// memory first. A leading UTF-8 byte order mark is dropped, invalid UTF-8
// bytes become U+FFFD, and reads past MaxFileSize fail.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// MaxFileSize is the largest dataset file LoadDataset reads (100MB).
var MaxFileSize int64 = 100 * 1024 * 1024

// ErrFileTooLarge is returned once more than MaxFileSize bytes were read.
var ErrFileTooLarge = errors.New("dataset file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textReader yields valid UTF-8 from any byte stream.
type textReader struct {
	src     *bufio.Reader
	started bool

	// pending holds the tail of an encoded rune that did not fit in p.
	pending [utf8.UTFMax]byte
	lo, hi  int
}

func newTextReader(r io.Reader) *textReader {
	return &textReader{src: bufio.NewReader(r)}
}

func (r *textReader) Read(p []byte) (int, error) {
	if !r.started {
		r.started = true
		if b, err := r.src.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
			_, _ = r.src.Discard(len(utf8BOM))
		}
	}

	n := copy(p, r.pending[r.lo:r.hi])
	r.lo += n
	for n < len(p) {
		c, size, err := r.src.ReadRune()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		if size == 1 && c < utf8.RuneSelf {
			p[n] = byte(c)
			n++
			continue
		}
		// An invalid byte decodes as RuneError with size 1 and is written
		// as the 3-byte replacement character.
		var enc [utf8.UTFMax]byte
		k := utf8.EncodeRune(enc[:], c)
		m := copy(p[n:], enc[:k])
		n += m
		if m < k {
			r.lo, r.hi = 0, copy(r.pending[:], enc[m:k])
		}
	}
	return n, nil
}

// sizeLimitReader fails once more than max bytes were read. Zero or less
// means no limit.
type sizeLimitReader struct {
	r    io.Reader
	read int64
	max  int64
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.max > 0 && l.read > l.max {
		return n, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, l.max)
	}
	return n, err
}
