package simnet

import (
	"log/slog"
	"sync"

	simerrors "github.com/alxayo/videocache-sim/internal/errors"
	"github.com/alxayo/videocache-sim/internal/simclock"
)

// PlayState is the playback state of one tracked video (spec §3).
type PlayState string

const (
	StateStop   PlayState = "stop"
	StateBuffer PlayState = "buffer"
	StatePlay   PlayState = "play"
)

// requestPayloadSizeKb is the nominal size of a videoRequest control
// message. The original measures this as len(payload)*8/1024 on a
// language-specific in-memory representation; here we use a small fixed
// size that always fits within one chunk under any realistic max_chunk
// configuration, preserving the "request is effectively atomic" behavior
// without depending on serialization-length semantics.
const requestPayloadSizeKb = 1.0

// mediaEntry is the per-video playback bookkeeping record (spec §3).
type mediaEntry struct {
	receivedKb  float64
	totalSizeKb float64 // 0 until the first chunk names it
	bitrateKbS  float64
	bufferKb    float64
	state       PlayState
}

// Client issues video requests, reassembles chunked responses, and drives
// the buffer/play state machine (spec §4.6).
type Client struct {
	Base

	clock *simclock.Clock
	link  *Link

	bufferSizeKb         float64
	waitOnRefill         bool
	twoInARowProtection  bool

	mu            sync.Mutex
	lastMedia     string
	mediaAskedFor map[string]*mediaEntry

	onNewDownload   func()
	onEndDownload   func()
	onStartPlayback func(videoID string)
	onVideoStopped  func(videoID string)
}

// NewClient constructs a Client with the default buffer threshold and
// two-in-a-row protection enabled, matching the original's defaults.
func NewClient(id int, name string, clock *simclock.Clock, log *slog.Logger) *Client {
	return &Client{
		Base:                NewBase(id, name, log),
		clock:               clock,
		bufferSizeKb:         1024,
		waitOnRefill:         true,
		twoInARowProtection:  true,
		mediaAskedFor:       make(map[string]*mediaEntry),
	}
}

// Connect wires the client's outgoing link (to the proxy).
func (c *Client) Connect(link *Link) { c.link = link }

func (c *Client) SetBufferSizeKb(v float64)         { c.bufferSizeKb = v }
func (c *Client) SetWaitOnRefill(v bool)            { c.waitOnRefill = v }
func (c *Client) SetTwoInARowProtection(v bool)     { c.twoInARowProtection = v }
func (c *Client) OnNewDownload(f func())            { c.onNewDownload = f }
func (c *Client) OnEndDownload(f func())             { c.onEndDownload = f }
func (c *Client) OnStartPlayback(f func(string))     { c.onStartPlayback = f }
func (c *Client) OnVideoStopped(f func(string))      { c.onVideoStopped = f }

// RequestMedia issues a videoRequest for videoID to serverID (spec §4.6).
// If two-in-a-row protection is enabled and videoID repeats the immediately
// preceding request, the request is dropped silently before the
// active-download counter is ever touched, preserving its balance
// invariant (spec §9 open question b).
func (c *Client) RequestMedia(videoID string, serverID int) {
	c.mu.Lock()
	if c.twoInARowProtection && videoID == c.lastMedia {
		c.mu.Unlock()
		if log := c.Logger(); log != nil {
			log.Debug("dropping repeated request", "video_id", videoID, "client", c.Name())
		}
		return
	}
	c.lastMedia = videoID
	c.mediaAskedFor[videoID] = &mediaEntry{state: StateStop}
	c.mu.Unlock()

	req := VideoRequest{ServerID: serverID, VideoID: videoID}
	pkt := c.Pack(PayloadVideoRequest, req, requestPayloadSizeKb, nil)
	if c.link != nil {
		c.link.Send(pkt, ModeNormal)
	}
	if c.onNewDownload != nil {
		c.onNewDownload()
	}
}

// Receive implements Receiver. Non-video packets fall through to a no-op
// default receive (spec §4.6: "Else: default peer receive").
func (c *Client) Receive(pkt Packet) {
	if pkt.PayloadType != PayloadVideo {
		return
	}
	video, ok := pkt.Payload.(Video)
	if !ok {
		return
	}
	videoID := video.VideoID

	c.mu.Lock()
	entry, asked := c.mediaAskedFor[videoID]
	if !asked {
		c.mu.Unlock()
		if log := c.Logger(); log != nil {
			log.Warn(simerrors.UnsolicitedChunkError(videoID).Error(), "client", c.Name())
		}
		return
	}

	if entry.totalSizeKb == 0 {
		entry.totalSizeKb = pkt.PayloadSizeKb
		entry.bitrateKbS = video.BitrateKbS
	}

	oldReceived := entry.receivedKb
	entry.receivedKb += pkt.ChunkSizeKb
	entry.bufferKb += pkt.ChunkSizeKb
	received := entry.receivedKb

	complete := received >= entry.totalSizeKb
	startPlayback := received >= c.bufferSizeKb && oldReceived < received && entry.state == StateStop
	if startPlayback {
		entry.state = StatePlay
	}
	c.mu.Unlock()

	if complete && c.onEndDownload != nil {
		c.onEndDownload()
	}
	if startPlayback && c.onStartPlayback != nil {
		c.onStartPlayback(videoID)
	}
}

// PlayLoop drains each tracked video's buffer once per simulated second
// until stop is closed (spec §4.6: "one per client, started explicitly").
func (c *Client) PlayLoop(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		c.tick()
		c.clock.SimSleep(1, true)
	}
}

// tick runs one player-loop iteration over every tracked video.
func (c *Client) tick() {
	c.mu.Lock()
	var stopped []string
	for videoID, entry := range c.mediaAskedFor {
		if c.waitOnRefill && entry.state == StateBuffer && entry.bufferKb > c.bufferSizeKb {
			entry.state = StatePlay
		}
		if entry.state != StatePlay {
			continue
		}
		if entry.bufferKb >= entry.bitrateKbS {
			entry.bufferKb -= entry.bitrateKbS
		} else {
			entry.bufferKb = 0
		}
		if entry.bufferKb == 0 {
			if c.waitOnRefill {
				entry.state = StateBuffer
			}
			stopped = append(stopped, videoID)
		}
	}
	c.mu.Unlock()

	if c.onVideoStopped != nil {
		for _, videoID := range stopped {
			c.onVideoStopped(videoID)
		}
	}
}

// State returns a snapshot of a tracked video's playback state, for tests
// and metrics collection.
func (c *Client) State(videoID string) (PlayState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.mediaAskedFor[videoID]
	if !ok {
		return "", false
	}
	return entry.state, true
}
