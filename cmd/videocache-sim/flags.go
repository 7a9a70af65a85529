package main

import (
	"flag"
	"fmt"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...". Defaults to dev.
var version = "dev"

// cliConfig holds the raw flag values before they are layered onto the
// loaded Config (spec §6: "A single command with flags overriding
// config"), following the teacher's cmd/rtmp-server/flags.go split between
// flag parsing and config translation.
type cliConfig struct {
	configPath string
	trace      string
	db         string
	speed      int
	proxy      string
	compareTo  string
	parallel   bool
	skip       bool
	noSkip     bool
	consume    bool
	noConsume  bool
	out        string
	verbosity  string
	metricsAddr string
	watchConfig bool
	hookStdio   string
	hookWebhook string
	showVersion bool

	fs *flag.FlagSet
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("videocache-sim", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{fs: fs}

	fs.StringVar(&cfg.configPath, "config", "", "Path to an INI configuration file (spec §6 sections)")
	fs.StringVar(&cfg.trace, "trace", "", "Trace file path, overrides [orchestration] trace_file")
	fs.StringVar(&cfg.db, "db", "", "Video catalog file path, overrides [orchestration] db_file")
	fs.IntVar(&cfg.speed, "speed", 0, "Virtual clock speed multiplier, overrides [simulation] speed")
	fs.StringVar(&cfg.proxy, "proxy", "", "Proxy type (FIFOProxy|LRUProxy|UnlimitedProxy|ForwardProxy), overrides [proxy] proxy_type")
	fs.StringVar(&cfg.compareTo, "compare-to", "", "Run a second replay with this proxy type alongside the primary one")
	fs.BoolVar(&cfg.parallel, "parallel", false, "Run the --compare-to replay concurrently with the primary one")
	fs.BoolVar(&cfg.skip, "skip", false, "Enable idle fast-forwarding, overrides [orchestration] skip_inactivity")
	fs.BoolVar(&cfg.noSkip, "no-skip", false, "Disable idle fast-forwarding, overrides [orchestration] skip_inactivity")
	fs.BoolVar(&cfg.consume, "consume", false, "Enable video playback/stop measurement, overrides [clients] consume_videos")
	fs.BoolVar(&cfg.noConsume, "no-consume", false, "Disable video playback/stop measurement, overrides [clients] consume_videos")
	fs.StringVar(&cfg.out, "out", "", "Output directory for clients/proxy CSVs, overrides [data] data_out")
	fs.StringVar(&cfg.verbosity, "verbosity", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", "", "Optional address to serve live prometheus metrics on (e.g. :9100)")
	fs.BoolVar(&cfg.watchConfig, "watch-config", false, "Watch -config and live-apply speed/wait_acc/cache_size edits")
	fs.StringVar(&cfg.hookStdio, "hook-stdio", "", "Emit cache/playback events to stderr in this format: json|env")
	fs.StringVar(&cfg.hookWebhook, "hook-webhook", "", "POST cache/playback events as JSON to this URL")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.skip && cfg.noSkip {
		return nil, fmt.Errorf("-skip and -no-skip are mutually exclusive")
	}
	if cfg.consume && cfg.noConsume {
		return nil, fmt.Errorf("-consume and -no-consume are mutually exclusive")
	}
	if cfg.parallel && cfg.compareTo == "" {
		return nil, fmt.Errorf("-parallel requires -compare-to")
	}
	if cfg.watchConfig && cfg.configPath == "" {
		return nil, fmt.Errorf("-watch-config requires -config")
	}

	switch cfg.verbosity {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid -verbosity %q", cfg.verbosity)
	}

	switch cfg.hookStdio {
	case "", "json", "env":
	default:
		return nil, fmt.Errorf("invalid -hook-stdio %q, want json or env", cfg.hookStdio)
	}

	return cfg, nil
}
