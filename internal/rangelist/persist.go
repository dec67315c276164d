package rangelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/akmistry/rangelist/internal/interval"
	"github.com/akmistry/rangelist/internal/util"
)

const (
	writeBufferSize = 64 * 1024
	readBufferSize  = 64 * 1024
)

var (
	ErrInvalidFileSize = errors.New("rangelist: invalid size")
	ErrInvalidRecord   = errors.New("rangelist: invalid interval")
)

// IOError is an operating system failure while reading or writing a dump.
type IOError struct {
	Op   string
	Path string
	// Zero if the underlying error does not carry an errno.
	Errno syscall.Errno
	Err   error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rangelist: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rangelist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func newIOError(op, path string, err error) *IOError {
	e := &IOError{Op: op, Path: path, Err: err}
	errors.As(err, &e.Errno)
	return e
}

// FormatError is a structurally invalid dump. Err is ErrInvalidFileSize or
// ErrInvalidRecord.
type FormatError struct {
	Path string
	// Index of the offending record, or -1.
	Record int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Record >= 0 {
		return fmt.Sprintf("rangelist: bad dump %s: record %d: %v", e.Path, e.Record, e.Err)
	}
	return fmt.Sprintf("rangelist: bad dump %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type SizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

// DumpTo writes the included intervals to |w| as a flat array of records.
// Write failures are returned as *IOError.
func (l *List[T]) DumpTo(w io.Writer) error {
	return l.dumpTo(w, "")
}

func (l *List[T]) dumpTo(w io.Writer, path string) error {
	bw := bufio.NewWriterSize(w, writeBufferSize)
	for _, it := range l.included {
		buf := appendRecord(bw.AvailableBuffer(), it)
		if _, err := bw.Write(buf); err != nil {
			return newIOError("write", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return newIOError("write", path, err)
	}
	return nil
}

// LoadFrom replaces the contents of the list with the records in |r|. The
// records are taken as already canonical, and only checked for
// lower < upper.
//
// If the reader size is not a multiple of the record size, the list is
// left untouched. On any other failure, the list is left empty.
func (l *List[T]) LoadFrom(r SizedReaderAt) error {
	return l.loadFrom(r, "")
}

func (l *List[T]) loadFrom(r SizedReaderAt, path string) error {
	size := r.Size()
	recSize := int64(RecordSize[T]())
	if size%recSize != 0 {
		return &FormatError{Path: path, Record: -1, Err: ErrInvalidFileSize}
	}

	n := size / recSize
	l.Clear()
	l.excluded = nil

	ints := make([]interval.Interval[T], n)
	br := bufio.NewReaderSize(util.NewSimpleReaderAtReader(r, 0), readBufferSize)
	rec := make([]byte, recSize)
	for i := range ints {
		if _, err := io.ReadFull(br, rec); err != nil {
			return newIOError("read", path, err)
		}
		ints[i] = decodeRecord[T](rec)
	}

	for i, it := range ints {
		if it.Lower >= it.Upper {
			return &FormatError{Path: path, Record: i, Err: ErrInvalidRecord}
		}
	}

	l.included = ints
	l.mutated()
	slog.Debug("rangelist: load done",
		"path", path,
		"intervals", n,
		"bytes", util.DetailedBytes(size))
	return nil
}

// DumpToFile creates or truncates |path| and writes the included intervals
// to it.
func (l *List[T]) DumpToFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return newIOError("open", path, err)
	}
	err = l.dumpTo(f, path)
	if err != nil {
		// Close the file on write error to avoid an FD leak
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return newIOError("close", path, err)
	}
	return nil
}

type sizedFile struct {
	*os.File
	size int64
}

func (f *sizedFile) Size() int64 {
	return f.size
}

// ReadFromFile replaces the contents of the list with a dump written by
// DumpToFile. See LoadFrom.
func (l *List[T]) ReadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return newIOError("open", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return newIOError("stat", path, err)
	}
	return l.loadFrom(&sizedFile{File: f, size: fi.Size()}, path)
}
