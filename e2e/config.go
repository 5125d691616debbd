package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerAddr string `envconfig:"FILE_SERVER_ADDR"`
	GatewayURL string `envconfig:"GATEWAY_URL"`
	ChunkSize  int    `envconfig:"E2E_CHUNK_SIZE" default:"65536"`
	// E2E_DEBUG_FRAMES logs the size of every streamed message
	DebugFrames bool `envconfig:"E2E_DEBUG_FRAMES" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
