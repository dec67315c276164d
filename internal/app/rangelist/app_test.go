package rangelist

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/akmistry/rangelist/internal/coverage"
	rl "github.com/akmistry/rangelist/internal/rangelist"
	"github.com/akmistry/rangelist/internal/storage/local"
)

const exampleOps = `add 10 20
add 15 25
add 100 110
remove 18 22
`

func newTestApp(t *testing.T, opts Options) (*App, *bytes.Buffer) {
	t.Helper()
	store, err := local.NewBlobStore(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	opts.Store = store
	opts.Out = &out
	return New(opts), &out
}

func buildExample(t *testing.T, a *App, name string) {
	t.Helper()
	ops, err := ParseOps(strings.NewReader(exampleOps))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Build(context.Background(), ops, name); err != nil {
		t.Fatal(err)
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New(Options{})
	if a.opts.CacheEntrySize != DefaultCacheEntrySize ||
		a.opts.BatchSize != DefaultBatchSize ||
		a.opts.Coverage != DefaultCoverage ||
		a.opts.Out == nil {
		t.Errorf("defaults not applied: %+v", a.opts)
	}
	a = New(Options{CacheEntrySize: 3, Coverage: "bitmap"})
	if a.opts.CacheEntrySize != 3 || a.opts.Coverage != "bitmap" {
		t.Errorf("options overridden: %+v", a.opts)
	}
}

func TestApp_BuildLoad(t *testing.T) {
	a, _ := newTestApp(t, Options{})
	buildExample(t, a, "example")

	l, err := a.Load("example")
	if err != nil {
		t.Fatal(err)
	}
	exp := rl.New[int64]()
	exp.Add(10, 18)
	exp.Add(22, 25)
	exp.Add(100, 110)
	exp.Aggregate()
	if !l.Equal(exp) {
		t.Errorf("loaded %v != %v", l.Intervals(), exp.Intervals())
	}

	if _, err := a.Load("missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error %v, expected ErrNotExist", err)
	}
}

func TestApp_BuildFile(t *testing.T) {
	a, out := newTestApp(t, Options{})
	opsPath := filepath.Join(t.TempDir(), "ops.txt")
	if err := os.WriteFile(opsPath, []byte(exampleOps), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background(), "build", []string{opsPath, "ex"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ex: 3 intervals, 21 values\n" {
		t.Errorf("build output %q", out.String())
	}

	if err := os.WriteFile(opsPath, []byte("add 1 2\nbogus\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := a.Run(context.Background(), "build", []string{opsPath, "bad"})
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Errorf("build error %v, expected ParseError at line 2", err)
	}
}

func TestApp_Queries(t *testing.T) {
	a, out := newTestApp(t, Options{CacheEntrySize: 2})
	buildExample(t, a, "example")
	ctx := context.Background()

	if err := a.Run(ctx, "stats", []string{"example"}); err != nil {
		t.Fatal(err)
	}
	expStats := "intervals: 3\nvalues: 21 (21)\nlower: 10\nupper: 110\nops: 4\ncreated: "
	if !strings.HasPrefix(out.String(), expStats) {
		t.Errorf("stats output %q, expected prefix %q", out.String(), expStats)
	}

	info, err := a.LoadInfo("example")
	if err != nil {
		t.Fatal(err)
	}
	if info.Ops != 4 || info.Intervals != 3 || info.Values != 21 ||
		info.Lower != 10 || info.Upper != 110 || info.ValueSize != 8 {
		t.Errorf("LoadInfo() %+v", info)
	}

	out.Reset()
	if err := a.Run(ctx, "contains", []string{"example", "19", "23", "-1"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "19\tfalse\n23\ttrue\n-1\tfalse\n" {
		t.Errorf("contains output %q", out.String())
	}

	out.Reset()
	if err := a.Run(ctx, "at", []string{"example", "0", "7", "8", "20"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "0\t10\n7\t17\n8\t22\n20\t109\n" {
		t.Errorf("at output %q", out.String())
	}

	err = a.Run(ctx, "at", []string{"example", "21"})
	if !errors.Is(err, rl.ErrRankOutOfRange) {
		t.Errorf("at 21 error %v != %v", err, rl.ErrRankOutOfRange)
	}
}

func TestApp_Sample(t *testing.T) {
	for _, kind := range []string{"bitmap", "extent"} {
		a, out := newTestApp(t, Options{Verify: true, Coverage: kind, BatchSize: 4, Seed: 42})
		buildExample(t, a, "example")
		if err := a.Run(context.Background(), "sample", []string{"example"}); err != nil {
			t.Fatalf("%s: sample error %v", kind, err)
		}

		var values []int
		for _, line := range strings.Fields(out.String()) {
			v, err := strconv.Atoi(line)
			if err != nil {
				t.Fatal(err)
			}
			values = append(values, v)
		}
		sort.Ints(values)
		var exp []int
		for _, r := range [][2]int{{10, 18}, {22, 25}, {100, 110}} {
			for v := r[0]; v < r[1]; v++ {
				exp = append(exp, v)
			}
		}
		if len(values) != len(exp) {
			t.Fatalf("%s: sampled %d values != %d", kind, len(values), len(exp))
		}
		for i := range exp {
			if values[i] != exp[i] {
				t.Errorf("%s: sorted sample %v != %v", kind, values, exp)
				break
			}
		}
	}
}

func TestApp_SampleDeterministic(t *testing.T) {
	a, out := newTestApp(t, Options{Seed: 7})
	buildExample(t, a, "example")
	if err := a.Sample("example"); err != nil {
		t.Fatal(err)
	}
	first := out.String()
	out.Reset()
	if err := a.Sample("example"); err != nil {
		t.Fatal(err)
	}
	if out.String() != first {
		t.Error("same seed gave a different sample order")
	}
}

func TestApp_StatsWithoutInfo(t *testing.T) {
	a, out := newTestApp(t, Options{})
	buildExample(t, a, "example")
	if err := a.opts.Store.Remove("example.meta"); err != nil {
		t.Fatal(err)
	}
	if err := a.Stats("example"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "ops:") {
		t.Errorf("stats output %q has metadata", out.String())
	}
}

func TestVerifyCoverage(t *testing.T) {
	l := rl.New[int64]()
	l.Add(-10, -5)
	l.Add(0, 3)
	l.Aggregate()

	for _, kind := range []string{"bitmap", "extent"} {
		cov, _ := coverage.New(kind)
		for _, v := range []int64{-10, -9, -8, -7, -6, 0, 1, 2} {
			cov.Add(coverageOffset(v, -10), 1)
		}
		if err := verifyCoverage(l, cov, -10); err != nil {
			t.Errorf("%s: verifyCoverage error %v", kind, err)
		}

		cov, _ = coverage.New(kind)
		for _, v := range []int64{-10, -9, -8, -7, -6, 0, 2} {
			cov.Add(coverageOffset(v, -10), 1)
		}
		if err := verifyCoverage(l, cov, -10); !errors.Is(err, ErrVerifyFailed) {
			t.Errorf("%s: verifyCoverage missing value error %v", kind, err)
		}
	}
}

func TestApp_Usage(t *testing.T) {
	a, _ := newTestApp(t, Options{})
	ctx := context.Background()
	tests := []struct {
		cmd  string
		args []string
	}{
		{"frob", nil},
		{"build", []string{"a"}},
		{"stats", nil},
		{"contains", []string{"a"}},
		{"contains", []string{"a", "x"}},
		{"at", []string{"a", "-1"}},
		{"sample", []string{"a", "b"}},
	}
	for _, tc := range tests {
		if err := a.Run(ctx, tc.cmd, tc.args); !errors.Is(err, ErrUsage) {
			t.Errorf("Run(%s, %v) error %v != %v", tc.cmd, tc.args, err, ErrUsage)
		}
	}

	a, _ = newTestApp(t, Options{Verify: true, Coverage: "tree"})
	buildExample(t, a, "example")
	if err := a.Sample("example"); !errors.Is(err, ErrUsage) {
		t.Errorf("Sample() with bad coverage error %v != %v", err, ErrUsage)
	}
}
