package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSimIni(t *testing.T, path string, cacheSize float64) {
	t.Helper()
	contents := fmt.Sprintf("[simulation]\nspeed = 10\nwait_acc = 1\n[proxy]\nproxy_type = FIFOProxy\ncache_size = %v\n", cacheSize)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchConfigAppliesCacheSizeEdit(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sim.ini")
	writeSimIni(t, cfgPath, 1000)

	trace := writeTempFile(t, dir, "trace.dat", ""+
		"id_client,id_video,id_server,req_timestamp\n"+
		"1,v1,1,0.0\n")
	db := writeTempFile(t, dir, "db.dat", ""+
		"id_server,id_video,duration,size,bitrate,title,description\n"+
		"1,v1,10,50,10,T,D\n")

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.TraceFile = trace
	cfg.DBFile = db
	cfg.Method = "scheduler"

	o := New(cfg, nil)
	if err := o.SetUp(); err != nil {
		t.Fatalf("SetUp failed: %v", err)
	}

	stop, err := o.WatchConfig(cfgPath)
	if err != nil {
		t.Fatalf("WatchConfig failed: %v", err)
	}
	defer stop()

	writeSimIni(t, cfgPath, 2000)

	deadline := time.Now().Add(3 * time.Second)
	for {
		if o.cfg.CacheSize == 2000 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected cache_size reload to apply, got %v", o.cfg.CacheSize)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if o.topo.Proxy.MaxCacheSizeKb() != 2000 {
		t.Fatalf("expected proxy's cache capacity to be updated, got %v", o.topo.Proxy.MaxCacheSizeKb())
	}
}

func TestWatchConfigAppliesSpeedEdit(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sim.ini")
	writeSimIni(t, cfgPath, 1000)

	trace := writeTempFile(t, dir, "trace.dat", ""+
		"id_client,id_video,id_server,req_timestamp\n"+
		"1,v1,1,0.0\n")
	db := writeTempFile(t, dir, "db.dat", ""+
		"id_server,id_video,duration,size,bitrate,title,description\n"+
		"1,v1,10,50,10,T,D\n")

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.TraceFile = trace
	cfg.DBFile = db
	cfg.Method = "scheduler"

	o := New(cfg, nil)
	if err := o.SetUp(); err != nil {
		t.Fatalf("SetUp failed: %v", err)
	}

	stop, err := o.WatchConfig(cfgPath)
	if err != nil {
		t.Fatalf("WatchConfig failed: %v", err)
	}
	defer stop()

	contents := "[simulation]\nspeed = 5000\nwait_acc = 1\n[proxy]\nproxy_type = FIFOProxy\ncache_size = 1000\n"
	if err := os.WriteFile(cfgPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if o.cfg.Speed == 5000 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected speed reload to apply, got %v", o.cfg.Speed)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
