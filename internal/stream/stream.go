// Package stream reads very large files line by line in fixed-size
// chunks so rule evaluation never buffers a whole file in memory.
package stream

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// chunkSize is the fixed read size. Memory use is bounded by the
// chunk size plus the longest single line, never by the file size.
const chunkSize = 64 * 1024

// Lines is a single-forward-pass line iterator over a file. It is not
// restartable; open a new iterator to read the file again.
type Lines struct {
	f     *os.File
	chunk []byte
	buf   []byte
	text  string
	line  int
	err   error
	eof   bool
	done  bool
}

// Open starts a line iteration over the file at path.
func Open(path string) (*Lines, error) {
	return openSize(path, chunkSize)
}

func openSize(path string, size int) (*Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Lines{f: f, chunk: make([]byte, size)}, nil
}

// Next advances to the next line. It returns false at end of file or
// on a read error; check Err afterwards.
func (l *Lines) Next() bool {
	if l.done {
		return false
	}
	for {
		if i := bytes.IndexByte(l.buf, '\n'); i >= 0 {
			l.text = strings.TrimSuffix(string(l.buf[:i]), "\r")
			l.buf = l.buf[i+1:]
			l.line++
			return true
		}
		if l.eof {
			l.done = true
			if len(l.buf) > 0 {
				// Final line without a trailing newline.
				l.text = strings.TrimSuffix(string(l.buf), "\r")
				l.buf = nil
				l.line++
				return true
			}
			return false
		}

		n, err := l.f.Read(l.chunk)
		if n > 0 {
			l.buf = append(l.buf, l.chunk[:n]...)
		}
		if err == io.EOF {
			l.eof = true
		} else if err != nil {
			l.err = err
			l.done = true
			return false
		}
	}
}

// Text returns the current line without its terminator.
func (l *Lines) Text() string {
	return l.text
}

// Line returns the 1-based number of the current line.
func (l *Lines) Line() int {
	return l.line
}

// Err returns the first read error encountered, if any.
func (l *Lines) Err() error {
	return l.err
}

// Close releases the underlying file.
func (l *Lines) Close() error {
	return l.f.Close()
}

// HashFile computes the hex sha256 of a file's content reading in
// fixed-size chunks.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the hex sha256 of already-loaded content.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
