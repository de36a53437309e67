package config

import (
	"flag"
	"os"
	"time"

	"github.com/certisafe/certisafe/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-b string   public base URL for verification links
//	-k string   ledger HMAC signing key
//	-m int      max certificate id mint attempts
//	-i int      expiry sweep interval, seconds (0 disables the ticker)
//	-t int      store call timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers in seconds and then converted to time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b", "-k", "-m", "-i", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.PublicBaseURL, "b", config.PublicBaseURL, "public base URL for verification links")
	fs.StringVar(&config.LedgerSigningKey, "k", config.LedgerSigningKey, "ledger signing key")
	fs.IntVar(&config.MintMaxAttempts, "m", config.MintMaxAttempts, "max mint attempts")

	sweepInterval := fs.Int("i", int(config.SweepInterval.Seconds()), "expiry sweep interval (in seconds)")
	storeTimeout := fs.Int("t", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SweepInterval = time.Duration(*sweepInterval) * time.Second
	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
}
