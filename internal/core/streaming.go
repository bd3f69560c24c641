package core

// streaming.go wraps input readers so CSV parsing sees clean UTF-8:
//
//   - NewBOMSkippingReader drops a leading UTF-8 byte order mark
//   - StreamingUTF8Sanitizer replaces invalid bytes with '?'
//   - StreamingCountingReader counts bytes for load statistics
//
// WrapForStreaming chains all three in the required order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StreamingUTF8Sanitizer replaces invalid UTF-8 bytes with '?' as data is read.
// A multi-byte sequence split across reads is held back until it completes.
type StreamingUTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewStreamingUTF8Sanitizer wraps r.
func NewStreamingUTF8Sanitizer(r io.Reader) *StreamingUTF8Sanitizer {
	return &StreamingUTF8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *StreamingUTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the number of bytes to hand
// to the caller. Unless atEOF, a trailing partial rune moves to pending.
func (s *StreamingUTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	end := len(data)
	if !atEOF {
		end -= partialRuneSuffix(data)
		s.pending = append(s.pending, data[end:]...)
	}
	if utf8.Valid(data[:end]) {
		return end
	}

	write := 0
	for read := 0; read < end; {
		r, size := utf8.DecodeRune(data[read:end])
		if r == utf8.RuneError && size == 1 {
			// One byte in, one byte out keeps the write cursor behind the read cursor.
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// partialRuneSuffix returns how many trailing bytes begin a multi-byte rune
// that the buffer cuts short.
func partialRuneSuffix(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < 0x80 {
			return 0
		}
		if b >= 0xC0 {
			if i < leadByteLen(b) {
				return i
			}
			return 0
		}
	}
	return 0
}

// leadByteLen returns the encoded length announced by a UTF-8 lead byte.
func leadByteLen(b byte) int {
	switch {
	case b >= 0xF0:
		return 4
	case b >= 0xE0:
		return 3
	case b >= 0xC0:
		return 2
	default:
		return 1
	}
}

// NewBOMSkippingReader returns r without a leading UTF-8 byte order mark.
// Windows tools, Excel in particular, add one to exported CSVs. Read errors
// hit while peeking surface on the first Read.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

// StreamingCountingReader counts the bytes handed to the CSV parser, for
// the load statistics in the debug log.
type StreamingCountingReader struct {
	io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

func (r *StreamingCountingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress is BytesRead as a percentage of Total, or 0 when Total is unknown.
func (r *StreamingCountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// WrapForStreaming strips the BOM, then sanitizes UTF-8, then counts.
func WrapForStreaming(r io.Reader, totalSize int64) *StreamingCountingReader {
	return &StreamingCountingReader{
		Reader: NewStreamingUTF8Sanitizer(NewBOMSkippingReader(r)),
		Total:  totalSize,
	}
}
