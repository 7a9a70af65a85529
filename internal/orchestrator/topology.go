package orchestrator

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/alxayo/videocache-sim/internal/simclock"
	"github.com/alxayo/videocache-sim/internal/simnet"
	"github.com/alxayo/videocache-sim/internal/simproxy"
)

// clientIDOffset is the constant by which raw trace client ids are shifted
// so client, server, and proxy ids never collide (spec §3: "id: global
// unique: 0 = proxy; 1..1000 = servers; >=1001 = clients").
const clientIDOffset = 1000

// newProxy constructs the proxy named by cfg.ProxyType (spec §6:
// "proxy_type (FIFOProxy|LRUProxy|UnlimitedProxy|...)").
func newProxy(cfg *Config, log *slog.Logger) *simproxy.Proxy {
	switch cfg.ProxyType {
	case "LRUProxy":
		return simproxy.NewCachingProxy(0, "Proxy", log, cfg.CacheSize, simproxy.NewLRUPolicy())
	case "UnlimitedProxy":
		// spec §4.5: Unlimited never calls make_space, so its cache must not
		// share cfg.CacheSize with FIFO/LRU — a finite capacity here would
		// make isFull go true once occupancy reaches it, and
		// UnlimitedPolicy.SelectEvict's permanent ("", false) would then wedge
		// MaybeAdmit shut instead of ever evicting.
		return simproxy.NewCachingProxy(0, "Proxy", log, math.Inf(1), simproxy.NewUnlimitedPolicy())
	case "ForwardProxy":
		return simproxy.NewForwardProxy(0, "Proxy", log)
	default: // "FIFOProxy"
		return simproxy.NewCachingProxy(0, "Proxy", log, cfg.CacheSize, simproxy.NewFIFOPolicy())
	}
}

// connectPeer wires the two unidirectional links between proxy and peer
// (spec §4.7: "two unidirectional links (to-proxy and from-proxy)"). lc's
// LagUp/Up describe the peer-to-proxy direction; LagDown/Down describe the
// proxy-to-peer direction — the original's _connect_clients/_connect_servers
// only ever passed lag_down to both directions, which this module treats as
// an oversight rather than intended behavior, since spec §6 lists lag_down
// and lag_up as two distinct configured values.
func connectPeer(clock *simclock.Clock, log *slog.Logger, proxy *simproxy.Proxy, peerID int, peerName string, peerRecv simnet.Receiver, lc LinkConfig, linkPrefix string) *simnet.Link {
	toProxy := simnet.NewLink(linkPrefix+"-to-proxy", lc.LagUp, lc.Up, lc.MaxChunk, proxy, clock, log)
	proxy.AddLink(peerID, toProxy)

	fromProxy := simnet.NewLink(linkPrefix+"-from-proxy", lc.LagDown, lc.Down, lc.MaxChunk, peerRecv, clock, log)
	return fromProxy
}

// Topology holds the wired simulation graph built by setUp.
type Topology struct {
	Clock   *simclock.Clock
	Proxy   *simproxy.Proxy
	Clients map[int]*simnet.Client
	Servers map[int]*simnet.VideoServer
}

// buildTopology creates every client named in traceRows and every server
// named in catalogRows, then wires all of them to a freshly constructed
// proxy (spec §4.7: "Topology wiring").
func buildTopology(cfg *Config, clock *simclock.Clock, log *slog.Logger, traceRows []traceRow, catalogRows []catalogRow) *Topology {
	topo := &Topology{
		Clock:   clock,
		Proxy:   newProxy(cfg, log),
		Clients: make(map[int]*simnet.Client),
		Servers: make(map[int]*simnet.VideoServer),
	}

	for _, row := range traceRows {
		id := row.clientID + clientIDOffset
		if _, ok := topo.Clients[id]; ok {
			continue
		}
		topo.Clients[id] = simnet.NewClient(id, clientName(id), clock, log)
	}

	for _, row := range catalogRows {
		srv, ok := topo.Servers[row.serverID]
		if !ok {
			srv = simnet.NewVideoServer(row.serverID, serverName(row.serverID), log)
			topo.Servers[row.serverID] = srv
		}
		srv.AddVideo(row.video)
	}

	for id, client := range topo.Clients {
		link := connectPeer(clock, log, topo.Proxy, id, clientName(id), client, cfg.Clients, clientName(id))
		client.Connect(link)
	}
	for id, server := range topo.Servers {
		link := connectPeer(clock, log, topo.Proxy, id, serverName(id), server, cfg.Servers, serverName(id))
		server.Connect(link)
	}

	return topo
}

func clientName(id int) string {
	return "Client " + strconv.Itoa(id-clientIDOffset)
}

func serverName(id int) string {
	return "Server " + strconv.Itoa(id)
}
