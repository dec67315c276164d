package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/akmistry/rangelist/internal/app/rangelist"
	"github.com/akmistry/rangelist/internal/storage"
	"github.com/akmistry/rangelist/internal/storage/cloud"
	"github.com/akmistry/rangelist/internal/storage/local"
)

var (
	storeFlag   = flag.String("store", ".", "Directory for the local blob store")
	verboseFlag = flag.Bool("verbose", false, "Verbose logging")

	blobstoreFlag     = flag.String("blobstore", "", "URL for blob storage backend")
	blobCacheSizeFlag = flag.String("blob-cache-size", "1G", "Size of blob cache")

	cacheEntrySizeFlag = flag.String("cache-entry-size", "64", "Intervals per index cache entry")
	batchFlag          = flag.String("batch", "1K", "Values per sampling batch")
	seedFlag           = flag.Uint64("seed", 0, "Sampling seed, 0 for a time based seed")
	verifyFlag         = flag.Bool("verify", false, "Check that sampling returned every value once")
	coverageFlag       = flag.String("coverage", rangelist.DefaultCoverage, "Coverage set for -verify: bitmap or extent")

	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

const usage = `Usage: rangelist [flags] <command> <args>

Commands:
  build <ops-file> <name>    aggregate add/remove ops and store the list
  stats <name>               interval count, value count and bounds
  contains <name> <v>...     membership of each value
  at <name> <rank>...        value at each rank
  sample <name>              every value once, in random order

Flags:
`

func parseCount(name, str string) int {
	v, err := rangelist.ParseSizeString(str)
	if err != nil || v == 0 || v > (1<<31) {
		log.Printf("Invalid %s flag: %s", name, str)
		os.Exit(1)
	}
	return int(v)
}

func openStore() (storage.BlobStore, error) {
	if *blobstoreFlag == "" {
		return local.NewBlobStore(*storeFlag)
	}

	cacheSize, err := rangelist.ParseSizeString(*blobCacheSizeFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid blob-cache-size flag %s: %w", *blobCacheSizeFlag, err)
	}
	stagingDir := filepath.Join(*storeFlag, "staging")
	cacheDir := filepath.Join(*storeFlag, "blob-cache")
	return cloud.NewBlobStore(*blobstoreFlag, stagingDir, cacheDir, int64(cacheSize))
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run())
}

func run() int {
	cacheEntrySize := parseCount("cache-entry-size", *cacheEntrySizeFlag)
	batchSize := parseCount("batch", *batchFlag)

	if *verboseFlag {
		slog.SetDefault(slog.New(slog.NewTextHandler(
			os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	seed := *seedFlag
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		slog.Debug("Using time based seed", "seed", seed)
	}

	store, err := openStore()
	if err != nil {
		log.Printf("Error opening blob store: %v", err)
		return 1
	}

	app := rangelist.New(rangelist.Options{
		Store:          store,
		Out:            os.Stdout,
		CacheEntrySize: cacheEntrySize,
		BatchSize:      batchSize,
		Seed:           seed,
		Verify:         *verifyFlag,
		Coverage:       *coverageFlag,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = app.Run(ctx, flag.Arg(0), flag.Args()[1:])
	if errors.Is(err, rangelist.ErrUsage) {
		log.Print(err)
		flag.Usage()
		return 2
	} else if err != nil {
		log.Printf("%s: %v", flag.Arg(0), err)
		return 1
	}
	return 0
}
