package util

import (
	"fmt"
)

var (
	byteSuffixes  = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB"}
	countSuffixes = []string{"", "K", "M", "G", "T", "P", "E"}
)

func humanReadable(n uint64, base float64, suffixes []string, sep string) string {
	v := float64(n)
	pow := 0
	for v >= base && pow < len(suffixes)-1 {
		pow++
		v /= base
	}

	if pow == 0 && suffixes[0] == "" {
		return fmt.Sprintf("%d", n)
	}
	if v < 10 {
		return fmt.Sprintf("%0.2f%s%s", v, sep, suffixes[pow])
	} else if v < 100 {
		return fmt.Sprintf("%0.1f%s%s", v, sep, suffixes[pow])
	}
	return fmt.Sprintf("%0.0f%s%s", v, sep, suffixes[pow])
}

func humanReadableBytes(b uint64) string {
	return humanReadable(b, 1024, byteSuffixes, " ")
}

type Bytes uint64

func (b Bytes) String() string {
	return humanReadableBytes(uint64(b))
}

type DetailedBytes uint64

func (b DetailedBytes) String() string {
	return fmt.Sprintf("%s (%d bytes)", humanReadableBytes(uint64(b)), b)
}

// Count is a number of items, printed with decimal suffixes (1.50M).
type Count uint64

func (c Count) String() string {
	return humanReadable(uint64(c), 1000, countSuffixes, "")
}
