package orchestrator

import (
	"flag"
	"fmt"

	"gopkg.in/ini.v1"

	simerrors "github.com/alxayo/videocache-sim/internal/errors"
)

// LinkConfig is the [clients]/[servers] section shape (spec §6): per-role
// lag/bandwidth/chunking parameters for both directions of a link pair.
type LinkConfig struct {
	LagDown float64
	LagUp   float64
	Down    float64
	Up      float64
	MaxChunk float64
}

// Config is the full recognized configuration surface of spec.md §6,
// following the teacher's cmd/rtmp-server layering: a plain struct with
// defaults, loaded from an INI file and then overridden by CLI flags.
type Config struct {
	Speed   float64
	WaitAcc float64

	Method         string // "scheduler" or "event_lock"
	SkipInactivity bool
	TraceFile      string
	DBFile         string

	ProxyType string
	CacheSize float64

	Clients LinkConfig
	Servers LinkConfig

	ConsumeVideos bool
	DataOut       string
}

// applyDefaults fills in the values the original config.py and
// orchestration.py hard-code, so an absent section still produces a
// runnable configuration (teacher's cmd/rtmp-server/flags.go default-flag
// pattern, generalized to an INI-backed config rather than flags alone).
func applyDefaults(c *Config) {
	if c.Speed == 0 {
		c.Speed = 6
	}
	if c.WaitAcc == 0 {
		c.WaitAcc = 1
	}
	if c.Method == "" {
		c.Method = "scheduler"
	}
	if c.ProxyType == "" {
		c.ProxyType = "FIFOProxy"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 16000
	}
	if c.TraceFile == "" {
		c.TraceFile = "fake_trace.dat"
	}
	if c.DBFile == "" {
		c.DBFile = "fake_video_db.dat"
	}
	if c.DataOut == "" {
		c.DataOut = "stats"
	}

	applyLinkDefaults(&c.Clients, 0.1, 4000, 600, 16)
	applyLinkDefaults(&c.Servers, 0.1, 100000, 100000, 16)
}

func applyLinkDefaults(l *LinkConfig, lag, down, up, maxChunk float64) {
	if l.LagDown == 0 {
		l.LagDown = lag
	}
	if l.LagUp == 0 {
		l.LagUp = lag
	}
	if l.Down == 0 {
		l.Down = down
	}
	if l.Up == 0 {
		l.Up = up
	}
	if l.MaxChunk == 0 {
		l.MaxChunk = maxChunk
	}
}

// LoadConfig reads an INI file at path into a Config, applying defaults for
// any option the file omits (spec §6's recognized sections/keys). A
// missing or unparseable file is a ConfigError (spec §7: "ConfigNotFound /
// ConfigParse at startup -> fatal, non-zero exit").
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if path == "" {
		return cfg, nil
	}

	raw, err := ini.Load(path)
	if err != nil {
		return nil, simerrors.NewConfigError("LoadConfig", err)
	}

	if sec, err := raw.GetSection("simulation"); err == nil {
		cfg.Speed = sec.Key("speed").MustFloat64(cfg.Speed)
		cfg.WaitAcc = sec.Key("wait_acc").MustFloat64(cfg.WaitAcc)
	}
	if sec, err := raw.GetSection("orchestration"); err == nil {
		cfg.Method = sec.Key("method").MustString(cfg.Method)
		cfg.SkipInactivity = sec.Key("skip_inactivity").MustBool(cfg.SkipInactivity)
		cfg.TraceFile = sec.Key("trace_file").MustString(cfg.TraceFile)
		cfg.DBFile = sec.Key("db_file").MustString(cfg.DBFile)
	}
	if sec, err := raw.GetSection("proxy"); err == nil {
		cfg.ProxyType = sec.Key("proxy_type").MustString(cfg.ProxyType)
		cfg.CacheSize = sec.Key("cache_size").MustFloat64(cfg.CacheSize)
	}
	if sec, err := raw.GetSection("clients"); err == nil {
		loadLinkSection(sec, &cfg.Clients)
		cfg.ConsumeVideos = sec.Key("consume_videos").MustBool(cfg.ConsumeVideos)
	}
	if sec, err := raw.GetSection("servers"); err == nil {
		loadLinkSection(sec, &cfg.Servers)
	}
	if sec, err := raw.GetSection("data"); err == nil {
		cfg.DataOut = sec.Key("data_out").MustString(cfg.DataOut)
	}

	return cfg, nil
}

func loadLinkSection(sec *ini.Section, l *LinkConfig) {
	l.LagDown = sec.Key("lag_down").MustFloat64(l.LagDown)
	l.LagUp = sec.Key("lag_up").MustFloat64(l.LagUp)
	l.Down = sec.Key("down").MustFloat64(l.Down)
	l.Up = sec.Key("up").MustFloat64(l.Up)
	l.MaxChunk = sec.Key("max_chunk").MustFloat64(l.MaxChunk)
}

// Overrides holds the CLI-flag values that take precedence over whatever
// the INI file specified (spec §6: "CLI surface ... flags overriding
// config"). Pointer fields distinguish "not passed" from a zero value.
type Overrides struct {
	Trace          *string
	DB             *string
	Speed          *int
	Proxy          *string
	SkipInactivity *bool
	ConsumeVideos  *bool
	Out            *string
}

// Apply layers non-nil override fields onto cfg, following
// cmd/rtmp-server/flags.go's "flags override file defaults" precedence.
func (o Overrides) Apply(cfg *Config) {
	if o.Trace != nil {
		cfg.TraceFile = *o.Trace
	}
	if o.DB != nil {
		cfg.DBFile = *o.DB
	}
	if o.Speed != nil {
		cfg.Speed = float64(*o.Speed)
	}
	if o.Proxy != nil {
		cfg.ProxyType = *o.Proxy
	}
	if o.SkipInactivity != nil {
		cfg.SkipInactivity = *o.SkipInactivity
	}
	if o.ConsumeVideos != nil {
		cfg.ConsumeVideos = *o.ConsumeVideos
	}
	if o.Out != nil {
		cfg.DataOut = *o.Out
	}
}

// FlagOverrides builds Overrides from a parsed flag.FlagSet's visited
// flags only, so an unpassed flag never clobbers a config-file value
// (mirrors cli.py's `if args.X != None` guards).
func FlagOverrides(fs *flag.FlagSet, trace, db, proxy, out *string, speed *int, skip, noSkip, consume, noConsume *bool) Overrides {
	var o Overrides
	visited := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	if visited["trace"] {
		o.Trace = trace
	}
	if visited["db"] {
		o.DB = db
	}
	if visited["proxy"] {
		o.Proxy = proxy
	}
	if visited["out"] {
		o.Out = out
	}
	if visited["speed"] {
		o.Speed = speed
	}
	if visited["skip"] {
		v := true
		o.SkipInactivity = &v
	}
	if visited["no-skip"] {
		v := false
		o.SkipInactivity = &v
	}
	if visited["consume"] {
		v := true
		o.ConsumeVideos = &v
	}
	if visited["no-consume"] {
		v := false
		o.ConsumeVideos = &v
	}
	return o
}

// String renders the config for the startup log line, following cli.py's
// print(str(conf)).
func (c Config) String() string {
	return fmt.Sprintf("speed=%v wait_acc=%v method=%s skip_inactivity=%v proxy=%s cache_size=%v trace=%s db=%s out=%s",
		c.Speed, c.WaitAcc, c.Method, c.SkipInactivity, c.ProxyType, c.CacheSize, c.TraceFile, c.DBFile, c.DataOut)
}
