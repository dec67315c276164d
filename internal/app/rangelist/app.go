package rangelist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/akmistry/rangelist/internal/coverage"
	"github.com/akmistry/rangelist/internal/metadata"
	rl "github.com/akmistry/rangelist/internal/rangelist"
	"github.com/akmistry/rangelist/internal/storage"
	"github.com/akmistry/rangelist/internal/util"
)

const (
	DefaultCacheEntrySize = 64
	DefaultBatchSize      = 1024
	DefaultCoverage       = "extent"
)

var (
	ErrUsage        = errors.New("invalid command usage")
	ErrVerifyFailed = errors.New("sample verification failed")
)

type Options struct {
	Store storage.BlobStore
	// Command output. Defaults to io.Discard.
	Out io.Writer

	// Intervals per index cache entry.
	CacheEntrySize int
	// Values per RandomSets batch.
	BatchSize int
	Seed      uint64
	// Check that sampling returned every value exactly once.
	Verify bool
	// Coverage set used by Verify, "bitmap" or "extent".
	Coverage string
}

type App struct {
	opts Options
}

func New(opts Options) *App {
	util.SetDefaultIfZero(&opts.Out, io.Writer(io.Discard))
	util.SetDefaultIfZero(&opts.CacheEntrySize, DefaultCacheEntrySize)
	util.SetDefaultIfZero(&opts.BatchSize, DefaultBatchSize)
	util.SetDefaultIfZero(&opts.Coverage, DefaultCoverage)
	return &App{opts: opts}
}

// Run executes command |cmd| with its positional |args|.
func (a *App) Run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "build":
		if len(args) != 2 {
			return fmt.Errorf("%w: build <ops-file> <name>", ErrUsage)
		}
		return a.BuildFile(ctx, args[0], args[1])
	case "stats":
		if len(args) != 1 {
			return fmt.Errorf("%w: stats <name>", ErrUsage)
		}
		return a.Stats(args[0])
	case "contains":
		if len(args) < 2 {
			return fmt.Errorf("%w: contains <name> <value>...", ErrUsage)
		}
		values := make([]int64, len(args)-1)
		for i, s := range args[1:] {
			v, err := ParseValue(s)
			if err != nil {
				return fmt.Errorf("%w: bad value %q: %w", ErrUsage, s, err)
			}
			values[i] = v
		}
		return a.Contains(args[0], values)
	case "at":
		if len(args) < 2 {
			return fmt.Errorf("%w: at <name> <rank>...", ErrUsage)
		}
		ranks := make([]uint64, len(args)-1)
		for i, s := range args[1:] {
			r, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad rank %q: %w", ErrUsage, s, err)
			}
			ranks[i] = r
		}
		return a.At(args[0], ranks)
	case "sample":
		if len(args) != 1 {
			return fmt.Errorf("%w: sample <name>", ErrUsage)
		}
		return a.Sample(args[0])
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

// Build aggregates |ops| and stores the result as blob |name|.
func (a *App) Build(ctx context.Context, ops []Op, name string) (*rl.List[int64], error) {
	start := time.Now()
	l := rl.New[int64]()
	l.Reserve(len(ops))
	for _, op := range ops {
		l.Insert(op.Interval, op.Exclude)
	}
	l.Aggregate()

	w, err := a.opts.Store.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := l.DumpTo(w); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if err := a.storeInfo(ctx, name, l, len(ops)); err != nil {
		return nil, err
	}

	slog.Info("Built interval list",
		"name", name,
		"ops", len(ops),
		"intervals", l.Len(),
		"values", util.Count(l.Size()),
		"bytes", util.DetailedBytes(l.Len()*rl.RecordSize[int64]()),
		"time", time.Since(start))
	return l, nil
}

func (a *App) BuildFile(ctx context.Context, opsPath, name string) error {
	f, err := openFile(opsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ops, err := ParseOps(f)
	if err != nil {
		return fmt.Errorf("%s: %w", opsPath, err)
	}
	l, err := a.Build(ctx, ops, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.opts.Out, "%s: %d intervals, %d values\n", name, l.Len(), l.Size())
	return nil
}

func (a *App) storeInfo(ctx context.Context, name string, l *rl.List[int64], ops int) error {
	info := &metadata.Info{
		ValueSize: rl.RecordSize[int64]() / 2,
		Ops:       ops,
		Intervals: l.Len(),
		Values:    l.Size(),
		Created:   time.Now(),
	}
	if ints := l.Intervals(); len(ints) > 0 {
		info.Lower = ints[0].Lower
		info.Upper = ints[len(ints)-1].Upper
	}

	w, err := a.opts.Store.Create(ctx, metadata.BlobName(name))
	if err != nil {
		return err
	}
	if err := metadata.StoreToWriter(w, info); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// LoadInfo reads the description stored alongside blob |name| by Build.
func (a *App) LoadInfo(name string) (*metadata.Info, error) {
	r, err := a.opts.Store.Open(metadata.BlobName(name))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return metadata.LoadFromReaderAt(r)
}

// Load reads blob |name| back into an aggregated list.
func (a *App) Load(name string) (*rl.List[int64], error) {
	r, err := a.opts.Store.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	l := rl.New[int64]()
	if err := l.LoadFrom(r); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return l, nil
}

func (a *App) loadIndexed(name string) (*rl.List[int64], error) {
	l, err := a.Load(name)
	if err != nil {
		return nil, err
	}
	if err := l.CreateIndexCache(a.opts.CacheEntrySize); err != nil {
		return nil, err
	}
	return l, nil
}

func (a *App) Stats(name string) error {
	l, err := a.Load(name)
	if err != nil {
		return err
	}

	out := a.opts.Out
	fmt.Fprintf(out, "intervals: %d\n", l.Len())
	fmt.Fprintf(out, "values: %d (%v)\n", l.Size(), util.Count(l.Size()))
	if ints := l.Intervals(); len(ints) > 0 {
		fmt.Fprintf(out, "lower: %d\n", ints[0].Lower)
		fmt.Fprintf(out, "upper: %d\n", ints[len(ints)-1].Upper)
	}

	// Dumps written by other tools have no description.
	info, err := a.LoadInfo(name)
	if err != nil {
		slog.Debug("No list metadata", "name", name, "error", err)
		return nil
	}
	if info.Intervals != l.Len() || info.Values != l.Size() {
		slog.Warn("List metadata does not match dump",
			"name", name,
			"intervals", info.Intervals,
			"values", info.Values)
	}
	fmt.Fprintf(out, "ops: %d\n", info.Ops)
	fmt.Fprintf(out, "created: %s\n", info.Created.Format(time.RFC3339))
	return nil
}

func (a *App) Contains(name string, values []int64) error {
	l, err := a.Load(name)
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Fprintf(a.opts.Out, "%d\t%v\n", v, l.Contains(v))
	}
	return nil
}

func (a *App) At(name string, ranks []uint64) error {
	l, err := a.loadIndexed(name)
	if err != nil {
		return err
	}
	for _, r := range ranks {
		v, err := l.AtCached(r)
		if err != nil {
			return fmt.Errorf("rank %d: %w", r, err)
		}
		fmt.Fprintf(a.opts.Out, "%d\t%d\n", r, v)
	}
	return nil
}

// Sample prints every value of blob |name| once, in random order.
func (a *App) Sample(name string) error {
	l, err := a.loadIndexed(name)
	if err != nil {
		return err
	}

	var cov coverage.Set
	if a.opts.Verify {
		var ok bool
		cov, ok = coverage.New(a.opts.Coverage)
		if !ok {
			return fmt.Errorf("%w: unknown coverage set %q", ErrUsage, a.opts.Coverage)
		}
	}
	var base int64
	if ints := l.Intervals(); len(ints) > 0 {
		base = ints[0].Lower
	}

	start := time.Now()
	bw := bufio.NewWriter(a.opts.Out)
	err = l.RandomSets(a.opts.BatchSize, func(batch []int64) error {
		for _, v := range batch {
			if cov != nil {
				off := coverageOffset(v, base)
				if cov.Has(off) {
					return fmt.Errorf("%w: %d sampled twice", ErrVerifyFailed, v)
				}
				cov.Add(off, 1)
			}
			buf := strconv.AppendInt(bw.AvailableBuffer(), v, 10)
			buf = append(buf, '\n')
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		return nil
	}, rand.NewPCG(a.opts.Seed, a.opts.Seed^l.Size()))
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if cov != nil {
		if err := verifyCoverage(l, cov, base); err != nil {
			return err
		}
	}
	slog.Debug("Sample done",
		"name", name,
		"values", util.Count(l.Size()),
		"verified", cov != nil,
		"time", time.Since(start))
	return nil
}

// Values are stored in the coverage set relative to the list's lowest value,
// which keeps a bitmap small for lists far from zero.
func coverageOffset(v, base int64) uint64 {
	return uint64(v) - uint64(base)
}

func verifyCoverage(l *rl.List[int64], cov coverage.Set, base int64) error {
	if cov.Count() != l.Size() {
		return fmt.Errorf("%w: covered %d values, expected %d", ErrVerifyFailed, cov.Count(), l.Size())
	}
	ints := l.Intervals()
	i := 0
	var err error
	cov.Iterate(0, func(r coverage.Range) bool {
		if i >= len(ints) {
			err = fmt.Errorf("%w: extra covered range %v", ErrVerifyFailed, r)
			return false
		}
		exp := coverage.Range{
			Lower: coverageOffset(ints[i].Lower, base),
			Upper: coverageOffset(ints[i].Upper, base),
		}
		if r != exp {
			err = fmt.Errorf("%w: covered range %v != interval %v", ErrVerifyFailed, r, ints[i])
			return false
		}
		i++
		return true
	})
	if err == nil && i != len(ints) {
		err = fmt.Errorf("%w: %d of %d intervals covered", ErrVerifyFailed, i, len(ints))
	}
	return err
}
