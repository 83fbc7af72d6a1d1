package reader

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/momentics/hioload-fio/api"
	"github.com/momentics/hioload-fio/fake"
	"github.com/momentics/hioload-fio/internal/geometry"
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i>>8)
	}
	return b
}

func testGeo(readSize int64) geometry.DeviceGeometry {
	g := geometry.Derive(512, 1, readSize)
	return g
}

func newFakeReader(t *testing.T, content []byte, readSize int64, cfg Config) (*Reader, *fake.Completer) {
	t.Helper()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("config: %v", err)
	}
	comp := fake.NewCompleter(content)
	r := newReader(nil, int64(len(content)), testGeo(readSize), comp, cfg)
	return r, comp
}

func TestStream_DeliversWholeFile(t *testing.T) {
	content := pattern(3*4096 + 1000)
	r, comp := newFakeReader(t, content, 4096, Config{NumBuffers: 4})

	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if got := comp.Submitted(); got != 4 {
		t.Errorf("reads issued = %d, want ceil(%d/4096) = 4", got, len(content))
	}
	if got := r.BytesRead(); got != int64(len(content)) {
		t.Errorf("bytes read = %d, want %d", got, len(content))
	}
	if !bytes.Equal(sink.Reassemble(), content) {
		t.Error("reassembled stream differs from content")
	}
	if reg, arena := comp.Registered(); !reg || arena != 4*4096 {
		t.Errorf("arena registration = (%v, %d), want (true, %d)", reg, arena, 4*4096)
	}
	if r.State() != StateClosed {
		t.Errorf("state = %v, want closed", r.State())
	}
}

func TestStream_InFlightBound(t *testing.T) {
	content := pattern(64 * 4096)
	r, comp := newFakeReader(t, content, 4096, Config{NumBuffers: 4})

	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	// Steady state holds exactly NumBuffers-1 reads in flight.
	if got := comp.MaxInFlight(); got != 3 {
		t.Errorf("max in-flight = %d, want 3", got)
	}
	if got := comp.Submitted(); got != 64 {
		t.Errorf("reads issued = %d, want 64", got)
	}
}

func TestStream_ShortFinalRead(t *testing.T) {
	const fileSize = 10_000_000
	const readSize = 2_097_152
	content := pattern(fileSize)
	r, comp := newFakeReader(t, content, readSize, Config{NumBuffers: 4})

	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if got := comp.Submitted(); got != 5 {
		t.Errorf("reads issued = %d, want 5", got)
	}
	if got := r.BytesRead(); got != fileSize {
		t.Errorf("bytes read = %d, want exactly %d", got, fileSize)
	}

	// The final read requested a full readSize but completed short; no
	// chunk may be counted twice.
	var sum int64
	final := int64(0)
	for _, c := range sink.Chunks() {
		sum += int64(len(c.Data))
		if c.Offset == 4*readSize {
			final = int64(len(c.Data))
		}
	}
	if sum != fileSize {
		t.Errorf("chunk lengths sum to %d, want %d", sum, fileSize)
	}
	if want := int64(fileSize - 4*readSize); final != want {
		t.Errorf("final chunk = %d bytes, want %d", final, want)
	}
	if !bytes.Equal(sink.Reassemble(), content) {
		t.Error("reassembled stream differs from content")
	}
}

func TestStream_SpuriousEOFIgnored(t *testing.T) {
	content := pattern(4096)
	r, comp := newFakeReader(t, content, 4096, Config{NumBuffers: 2})
	comp.SpuriousEOF = true

	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got := r.Stats().EOFFiltered; got != 1 {
		t.Errorf("EOF filtered = %d, want 1", got)
	}
	if got := r.BytesRead(); got != 4096 {
		t.Errorf("bytes read = %d, want 4096: EOF must not end the drain loop", got)
	}
}

func TestStream_DeviceErrorAborts(t *testing.T) {
	content := pattern(16 * 4096)
	r, comp := newFakeReader(t, content, 4096, Config{NumBuffers: 4})
	comp.ErrAt = 3

	var sink fake.RecordingSink
	err := r.Stream(&sink)
	if err == nil {
		t.Fatal("Stream succeeded past an injected device failure")
	}
	if !errors.Is(err, fake.ErrInjected) {
		t.Errorf("error %v does not carry the native status", err)
	}
	var ae *api.Error
	if !errors.As(err, &ae) || ae.Code != api.ErrCodeComplete {
		t.Errorf("error %v is not a completion-stage api.Error", err)
	}
	if r.State() != StateClosed {
		t.Errorf("state after abort = %v, want closed", r.State())
	}
}

func TestStream_SinkErrorAborts(t *testing.T) {
	content := pattern(16 * 4096)
	r, _ := newFakeReader(t, content, 4096, Config{NumBuffers: 4})

	sink := &fake.RecordingSink{RejectAt: 2}
	err := r.Stream(sink)
	if err == nil {
		t.Fatal("Stream succeeded past a sink rejection")
	}
	var ae *api.Error
	if !errors.As(err, &ae) || ae.Code != api.ErrCodeSink {
		t.Errorf("error %v is not a sink-stage api.Error", err)
	}
}

func TestStreamParallel_OutOfOrderChecksum(t *testing.T) {
	content := pattern(512 * 4096)
	r, comp := newFakeReader(t, content, 4096, Config{NumBuffers: 8})
	comp.LIFO = true // newest-first completions

	var sink fake.RecordingSink
	if err := r.StreamParallel(&sink, 4); err != nil {
		t.Fatalf("StreamParallel: %v", err)
	}
	if got := r.BytesRead(); got != int64(len(content)) {
		t.Errorf("bytes read = %d, want %d", got, len(content))
	}
	if !bytes.Equal(sink.Reassemble(), content) {
		t.Error("offset-keyed reassembly differs from content")
	}
	if got := comp.Submitted(); got != 512 {
		t.Errorf("reads issued = %d, want 512", got)
	}
}

func TestStream_EmptyFile(t *testing.T) {
	r, comp := newFakeReader(t, nil, 4096, Config{NumBuffers: 2})
	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream over empty file: %v", err)
	}
	if comp.Submitted() != 0 {
		t.Errorf("reads issued = %d for empty file, want 0", comp.Submitted())
	}
	if r.State() != StateClosed {
		t.Errorf("state = %v, want closed", r.State())
	}
}

func TestStream_SecondStreamRejected(t *testing.T) {
	content := pattern(4096)
	r, _ := newFakeReader(t, content, 4096, Config{NumBuffers: 2})
	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if err := r.Stream(&sink); !errors.Is(err, api.ErrInvalidState) {
		t.Errorf("second Stream = %v, want ErrInvalidState", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open("/does/not/exist/anywhere", DefaultConfig()); err == nil {
		t.Fatal("Open accepted a missing path")
	}
}

func TestStream_RealFile(t *testing.T) {
	content := pattern(3*4096 + 123)
	f, err := os.CreateTemp(t.TempDir(), "fio-*.dat")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	cfg := Config{NumBuffers: 4, ChunkSize: 1, MinBufferSize: 4096}
	r, err := Open(f.Name(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var sink fake.RecordingSink
	if err := r.Stream(&sink); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !bytes.Equal(sink.Reassemble(), content) {
		t.Error("reassembled file differs from written content")
	}
	if got := r.BytesRead(); got != int64(len(content)) {
		t.Errorf("bytes read = %d, want %d", got, len(content))
	}
}
