// Package metadata describes a stored interval list dump. The dump itself has
// no header, so the description is kept in a separate sidecar blob.
package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	iou "github.com/akmistry/go-util/io"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	Magic   = "rangelist-meta\x31\x41\x59\x26"
	Version = 1

	// Sidecar header is limited to something sane.
	maxHeaderSize = 1 << 20
)

var (
	ErrInvalidMagic = errors.New("metadata: invalid magic")
	ErrInvalidField = errors.New("metadata: missing or invalid field")
)

type Info struct {
	// Bytes per encoded value.
	ValueSize int
	// Add/remove operations the list was built from.
	Ops       int
	Intervals int
	Values    uint64
	// Bounds of the set. Only meaningful when Intervals > 0.
	Lower, Upper int64
	Created      time.Time
}

// BlobName returns the sidecar blob name for dump |name|.
func BlobName(name string) string {
	return name + ".meta"
}

func (i *Info) Proto() *structpb.Struct {
	// Integers are stored as decimal strings, since number values are
	// doubles.
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"version":    structpb.NewNumberValue(Version),
		"value_size": structpb.NewNumberValue(float64(i.ValueSize)),
		"ops":        structpb.NewStringValue(strconv.Itoa(i.Ops)),
		"intervals":  structpb.NewStringValue(strconv.Itoa(i.Intervals)),
		"values":     structpb.NewStringValue(strconv.FormatUint(i.Values, 10)),
		"lower":      structpb.NewStringValue(strconv.FormatInt(i.Lower, 10)),
		"upper":      structpb.NewStringValue(strconv.FormatInt(i.Upper, 10)),
		"created":    structpb.NewStringValue(i.Created.UTC().Format(time.RFC3339Nano)),
	}}
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidField, name)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrInvalidField, name)
	}
	return str.StringValue, nil
}

func intField(s *structpb.Struct, name string, bitSize int) (int64, error) {
	str, err := stringField(s, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(str, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidField, name, err)
	}
	return v, nil
}

func InfoFromProto(s *structpb.Struct) (*Info, error) {
	if v := s.GetFields()["version"].GetNumberValue(); v != Version {
		return nil, fmt.Errorf("metadata: unsupported version %v", v)
	}

	i := &Info{
		ValueSize: int(s.GetFields()["value_size"].GetNumberValue()),
	}
	if i.ValueSize <= 0 {
		return nil, fmt.Errorf("%w: value_size", ErrInvalidField)
	}

	ops, err := intField(s, "ops", 0)
	if err != nil {
		return nil, err
	}
	i.Ops = int(ops)
	intervals, err := intField(s, "intervals", 0)
	if err != nil {
		return nil, err
	}
	i.Intervals = int(intervals)
	if i.Lower, err = intField(s, "lower", 64); err != nil {
		return nil, err
	}
	if i.Upper, err = intField(s, "upper", 64); err != nil {
		return nil, err
	}

	values, err := stringField(s, "values")
	if err != nil {
		return nil, err
	}
	i.Values, err = strconv.ParseUint(values, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: values: %w", ErrInvalidField, err)
	}

	created, err := stringField(s, "created")
	if err != nil {
		return nil, err
	}
	i.Created, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("%w: created: %w", ErrInvalidField, err)
	}
	return i, nil
}

func (i *Info) String() string {
	return prototext.MarshalOptions{Multiline: true}.Format(i.Proto())
}

// StoreToWriter writes |i| as the magic, a little endian uint32 header
// length and the encoded header.
func StoreToWriter(w io.Writer, i *Info) error {
	buf, err := proto.Marshal(i.Proto())
	if err != nil {
		return err
	}

	var headerSize [4]byte
	binary.LittleEndian.PutUint32(headerSize[:], uint32(len(buf)))
	_, err = iou.WriteMany(w, []byte(Magic), headerSize[:], buf)
	return err
}

func LoadFromReaderAt(r io.ReaderAt) (*Info, error) {
	magicHeaderSizeBuf := make([]byte, len(Magic)+4)
	_, err := r.ReadAt(magicHeaderSizeBuf, 0)
	if err == io.EOF {
		return nil, ErrInvalidMagic
	} else if err != nil {
		return nil, err
	}
	if !bytes.Equal(magicHeaderSizeBuf[:len(Magic)], []byte(Magic)) {
		return nil, ErrInvalidMagic
	}

	headerSize := binary.LittleEndian.Uint32(magicHeaderSizeBuf[len(Magic):])
	if headerSize > maxHeaderSize {
		return nil, fmt.Errorf("metadata: header size %d too large", headerSize)
	}
	headerBuf := make([]byte, headerSize)
	_, err = r.ReadAt(headerBuf, int64(len(magicHeaderSizeBuf)))
	if err == io.EOF && headerSize > 0 {
		return nil, io.ErrUnexpectedEOF
	} else if err != nil && err != io.EOF {
		return nil, err
	}

	s := new(structpb.Struct)
	if err := proto.Unmarshal(headerBuf, s); err != nil {
		return nil, err
	}
	return InfoFromProto(s)
}
