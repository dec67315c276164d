package metadata

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func testInfo() *Info {
	return &Info{
		ValueSize: 8,
		Ops:       4,
		Intervals: 3,
		Values:    1<<60 + 1,
		Lower:     -1 << 62,
		Upper:     110,
		Created:   time.Date(2024, 5, 1, 12, 30, 0, 123, time.UTC),
	}
}

func TestStoreLoad(t *testing.T) {
	info := testInfo()
	var buf bytes.Buffer
	if err := StoreToWriter(&buf, info); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(Magic)) {
		t.Error("missing magic")
	}

	got, err := LoadFromReaderAt(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Created.Equal(info.Created) {
		t.Errorf("Created %v != %v", got.Created, info.Created)
	}
	got.Created = info.Created
	if *got != *info {
		t.Errorf("loaded %+v != %+v", got, info)
	}
}

func TestLoad_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := StoreToWriter(&buf, testInfo()); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if _, err := LoadFromReaderAt(bytes.NewReader(nil)); err != ErrInvalidMagic {
		t.Errorf("empty error %v != %v", err, ErrInvalidMagic)
	}
	bad := bytes.Clone(data)
	bad[0] ^= 0xFF
	if _, err := LoadFromReaderAt(bytes.NewReader(bad)); err != ErrInvalidMagic {
		t.Errorf("bad magic error %v != %v", err, ErrInvalidMagic)
	}
	if _, err := LoadFromReaderAt(bytes.NewReader(data[:len(data)-3])); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated error %v != %v", err, io.ErrUnexpectedEOF)
	}
}

func TestInfoFromProto_Invalid(t *testing.T) {
	s := testInfo().Proto()
	delete(s.Fields, "values")
	if _, err := InfoFromProto(s); !errors.Is(err, ErrInvalidField) {
		t.Errorf("missing field error %v != %v", err, ErrInvalidField)
	}

	s = testInfo().Proto()
	s.Fields["lower"] = s.Fields["version"]
	if _, err := InfoFromProto(s); !errors.Is(err, ErrInvalidField) {
		t.Errorf("wrong kind error %v != %v", err, ErrInvalidField)
	}

	s = testInfo().Proto()
	delete(s.Fields, "version")
	if _, err := InfoFromProto(s); err == nil {
		t.Error("missing version accepted")
	}
}

func TestInfo_String(t *testing.T) {
	str := testInfo().String()
	for _, exp := range []string{"intervals", "\"3\"", "created"} {
		if !strings.Contains(str, exp) {
			t.Errorf("String() %q missing %q", str, exp)
		}
	}
}
