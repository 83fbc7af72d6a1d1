package control

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sugawarayuuta/sonnet"
)

func TestConfigStore_SnapshotAndGet(t *testing.T) {
	cs := NewConfigStore()
	cs.SetConfig(map[string]string{"A": "1", "B": "2"})

	snap := cs.GetSnapshot()
	if snap["A"] != "1" || snap["B"] != "2" {
		t.Errorf("snapshot = %v", snap)
	}
	snap["A"] = "mutated"
	if v, _ := cs.Get("A"); v != "1" {
		t.Error("snapshot mutation leaked into store")
	}
	if _, ok := cs.Get("missing"); ok {
		t.Error("Get reported a missing key as present")
	}
}

func TestConfigStore_ReloadListener(t *testing.T) {
	cs := NewConfigStore()
	var mu sync.Mutex
	fired := 0
	done := make(chan struct{}, 1)
	cs.OnReload(func() {
		mu.Lock()
		fired++
		mu.Unlock()
		done <- struct{}{}
	})

	cs.SetConfig(map[string]string{"K": "v"})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reload listener did not fire")
	}
	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("listener fired %d times, want 1", fired)
	}
}

func TestConfigStore_SeedFromEnv(t *testing.T) {
	t.Setenv("FIO_TEST_NUM_BUFFERS", "6")
	t.Setenv("UNRELATED", "x")

	cs := NewConfigStore()
	cs.SeedFromEnv("FIO_TEST_")
	if v, ok := cs.Get("NUM_BUFFERS"); !ok || v != "6" {
		t.Errorf("NUM_BUFFERS = (%q, %v), want (6, true)", v, ok)
	}
	if _, ok := cs.Get("UNRELATED"); ok {
		t.Error("unprefixed variable leaked into store")
	}
}

func TestConfigStore_SeedFromDotenv(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/.env"
	if err := os.WriteFile(path, []byte("FIO_DOT_CHUNK_SIZE=96\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cs := NewConfigStore()
	cs.SeedFromEnv("FIO_DOT_", path)
	if v, ok := cs.Get("CHUNK_SIZE"); !ok || v != "96" {
		t.Errorf("CHUNK_SIZE = (%q, %v), want (96, true)", v, ok)
	}
}

func TestDebugProbes_DumpJSON(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })

	raw, err := dp.DumpJSON()
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	var out map[string]any
	if err := sonnet.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal dump: %v", err)
	}
	if out["answer"] != float64(42) {
		t.Errorf("dump = %v", out)
	}
}

func TestMetricsRegistry(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.Set("bytes", int64(7))
	if mr.GetSnapshot()["bytes"] != int64(7) {
		t.Errorf("snapshot = %v", mr.GetSnapshot())
	}
	if mr.Updated().IsZero() {
		t.Error("Updated not stamped by Set")
	}
}
