package rangelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/akmistry/rangelist/internal/interval"
)

var (
	ErrInvalidOp       = errors.New("invalid op")
	ErrInvalidInterval = errors.New("invalid interval")

	shortOpPattern = regexp.MustCompile(`^(!?)(-?[0-9]+)-(-?[0-9]+)$`)
)

// Op is one line of an ops file: include or exclude an interval.
type Op struct {
	Interval interval.Interval[int64]
	Exclude  bool
}

func (o Op) String() string {
	if o.Exclude {
		return "remove " + o.Interval.String()
	}
	return "add " + o.Interval.String()
}

type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func ParseValue(str string) (int64, error) {
	return strconv.ParseInt(str, 10, 64)
}

// ParseInterval parses "<lo> <hi>" or "<lo>-<hi>" into [lo, hi).
func ParseInterval(str string) (interval.Interval[int64], error) {
	var lo, hi string
	if fields := strings.Fields(str); len(fields) == 2 {
		lo, hi = fields[0], fields[1]
	} else if m := shortOpPattern.FindStringSubmatch(str); m != nil && m[1] == "" {
		lo, hi = m[2], m[3]
	} else {
		return interval.Interval[int64]{}, ErrInvalidInterval
	}

	l, err := ParseValue(lo)
	if err != nil {
		return interval.Interval[int64]{}, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
	}
	h, err := ParseValue(hi)
	if err != nil {
		return interval.Interval[int64]{}, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
	}
	if l > h {
		return interval.Interval[int64]{}, fmt.Errorf("%w: lower %d > upper %d", ErrInvalidInterval, l, h)
	}
	return interval.New(l, h), nil
}

func parseOp(line string) (Op, error) {
	if m := shortOpPattern.FindStringSubmatch(line); m != nil {
		it, err := ParseInterval(m[2] + " " + m[3])
		return Op{Interval: it, Exclude: m[1] == "!"}, err
	}

	verb, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Op{}, ErrInvalidOp
	}
	var op Op
	switch verb {
	case "add":
	case "remove":
		op.Exclude = true
	default:
		return Op{}, ErrInvalidOp
	}
	it, err := ParseInterval(strings.TrimSpace(rest))
	op.Interval = it
	return op, err
}

// ParseOps reads an ops file. Each line is "add <lo> <hi>", "remove <lo> <hi>",
// "<lo>-<hi>" or "!<lo>-<hi>". Blank lines and text after '#' are ignored.
func ParseOps(r io.Reader) ([]Op, error) {
	var ops []Op
	s := bufio.NewScanner(r)
	lineNum := 0
	for s.Scan() {
		lineNum++
		text := s.Text()
		line, _, _ := strings.Cut(text, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		op, err := parseOp(line)
		if err != nil {
			return nil, &ParseError{Line: lineNum, Text: text, Err: err}
		}
		ops = append(ops, op)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}
