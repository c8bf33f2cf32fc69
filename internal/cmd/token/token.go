// Package token implements the upload-token minting command.
package token

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/muridae/tumorboard/internal/auth"
	"github.com/muridae/tumorboard/internal/platform/config"
)

// Config holds the token command configuration.
type Config struct {
	Secret  string
	Subject string
	TTL     time.Duration
}

type envConfig struct {
	Secret string `env:"TUMORBOARD_UPLOAD_SECRET"`
}

// ParseConfig loads the signing secret from the environment and parses flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var ec envConfig
	if err := config.ParseEnv(&ec); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Secret: ec.Secret,
		TTL:    24 * time.Hour,
	}

	fs.StringVar(&cfg.Subject, "subject", "", "token subject (who uploads)")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run mints a token and writes it to out.
func Run(_ context.Context, cfg Config, out io.Writer) error {
	if cfg.Secret == "" {
		return errors.New("TUMORBOARD_UPLOAD_SECRET is not set")
	}

	token, err := auth.Mint([]byte(cfg.Secret), cfg.Subject, cfg.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
