package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// LoadConfig fills cfg from the environment, after an optional .env file,
// and validates it. Variables already set win over the file.
func LoadConfig(cfg any, envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func ListenAddress(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
