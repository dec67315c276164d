package rangelist

import (
	"encoding/binary"
	"log"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/akmistry/rangelist/internal/interval"
)

// On-disk records are a pair of values, each in the size of the domain
// type, in native byte order. No header.

func valueSize[T constraints.Integer]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

func RecordSize[T constraints.Integer]() int {
	return 2 * valueSize[T]()
}

func appendValue[T constraints.Integer](b []byte, v T) []byte {
	switch valueSize[T]() {
	case 1:
		return append(b, byte(v))
	case 2:
		return binary.NativeEndian.AppendUint16(b, uint16(v))
	case 4:
		return binary.NativeEndian.AppendUint32(b, uint32(v))
	case 8:
		return binary.NativeEndian.AppendUint64(b, uint64(v))
	}
	log.Panicf("rangelist: unsupported value size %d", valueSize[T]())
	return nil
}

// Conversions between integer types of the same size keep the bit pattern,
// so signed values round trip.
func decodeValue[T constraints.Integer](b []byte) T {
	switch len(b) {
	case 1:
		return T(b[0])
	case 2:
		return T(binary.NativeEndian.Uint16(b))
	case 4:
		return T(binary.NativeEndian.Uint32(b))
	case 8:
		return T(binary.NativeEndian.Uint64(b))
	}
	log.Panicf("rangelist: unsupported value size %d", len(b))
	return 0
}

func appendRecord[T constraints.Integer](b []byte, i interval.Interval[T]) []byte {
	b = appendValue(b, i.Lower)
	return appendValue(b, i.Upper)
}

func decodeRecord[T constraints.Integer](b []byte) interval.Interval[T] {
	half := len(b) / 2
	return interval.Interval[T]{
		Lower: decodeValue[T](b[:half]),
		Upper: decodeValue[T](b[half:]),
	}
}
