package orchestrator

import (
	"math"
	"testing"

	"github.com/alxayo/videocache-sim/internal/simclock"
	"github.com/alxayo/videocache-sim/internal/simnet"
)

func TestBuildTopologyOffsetsClientIDsAndWiresLinks(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	clock := simclock.New(cfg.Speed, cfg.WaitAcc)

	trace := []traceRow{
		{clientID: 1, videoID: "v1", serverID: 1, reqTimestamp: 0},
		{clientID: 1, videoID: "v2", serverID: 1, reqTimestamp: 5},
		{clientID: 2, videoID: "v1", serverID: 1, reqTimestamp: 7},
	}
	catalog := []catalogRow{
		{serverID: 1, video: simnet.Video{VideoID: "v1", SizeKb: 100, BitrateKbS: 10}},
		{serverID: 1, video: simnet.Video{VideoID: "v2", SizeKb: 100, BitrateKbS: 10}},
	}

	topo := buildTopology(cfg, clock, nil, trace, catalog)

	if len(topo.Clients) != 2 {
		t.Fatalf("expected 2 distinct clients, got %d", len(topo.Clients))
	}
	if _, ok := topo.Clients[1001]; !ok {
		t.Fatal("expected client id 1 to be offset to 1001")
	}
	if _, ok := topo.Clients[1002]; !ok {
		t.Fatal("expected client id 2 to be offset to 1002")
	}
	if len(topo.Servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(topo.Servers))
	}
	if _, ok := topo.Servers[1]; !ok {
		t.Fatal("expected server id 1 to be present unmodified")
	}
	if video, ok := topo.Servers[1].Lookup("v1"); !ok || video.SizeKb != 100 {
		t.Fatalf("expected server catalog to contain v1, got %+v ok=%v", video, ok)
	}
}

func TestNewProxySelectsPolicyFromConfig(t *testing.T) {
	for _, tc := range []struct {
		proxyType string
	}{
		{"FIFOProxy"}, {"LRUProxy"}, {"UnlimitedProxy"}, {"ForwardProxy"}, {""},
	} {
		cfg := &Config{ProxyType: tc.proxyType, CacheSize: 1000}
		p := newProxy(cfg, nil)
		if p == nil {
			t.Fatalf("expected a non-nil proxy for type %q", tc.proxyType)
		}
		if tc.proxyType == "UnlimitedProxy" && !math.IsInf(p.MaxCacheSizeKb(), 1) {
			t.Fatalf("expected UnlimitedProxy's cache capacity to be unbounded, got %v", p.MaxCacheSizeKb())
		}
	}
}
