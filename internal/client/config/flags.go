package config

import (
	"flag"
	"os"
	"time"

	"github.com/slwang/voiceledger/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the sync server (default from Config)
//	-f string   path to the SQLite database file (default from Config)
//	-b int      debounce interval in seconds (default from Config)
//	-i int      full sync interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-b", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the sync server")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "path to the SQLite database file")
	debounce := fs.Int("b", int(cfg.DebounceInterval.Seconds()), "debounce interval (in seconds)")
	interval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "full sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DebounceInterval = time.Duration(*debounce) * time.Second
	cfg.SyncInterval = time.Duration(*interval) * time.Second
}
