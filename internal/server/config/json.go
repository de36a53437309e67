package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/certisafe/certisafe/internal/flagx"
	"github.com/certisafe/certisafe/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	PublicBaseURL    string         `json:"public_base_url"`
	LedgerSigningKey string         `json:"ledger_signing_key"`
	MintMaxAttempts  int            `json:"mint_max_attempts"`
	SweepInterval    timex.Duration `json:"sweep_interval"`
	StoreTimeout     timex.Duration `json:"store_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.PublicBaseURL = c.PublicBaseURL
	config.LedgerSigningKey = c.LedgerSigningKey
	config.MintMaxAttempts = c.MintMaxAttempts
	config.SweepInterval = time.Duration(c.SweepInterval.Duration)
	config.StoreTimeout = time.Duration(c.StoreTimeout.Duration)
}
