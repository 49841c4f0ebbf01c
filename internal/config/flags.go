package config

import (
	"flag"
	"os"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the remote record store
//	-k string   API key sent with every remote call
//	-d string   local storage DSN (sqlite file path)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the remote record store")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key for the remote record store")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "local storage DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
