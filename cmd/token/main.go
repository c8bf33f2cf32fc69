// Package main mints upload tokens for the dashboard API.
package main

import (
	"context"
	"flag"
	"os"

	tokencmd "github.com/muridae/tumorboard/internal/cmd/token"
	"github.com/muridae/tumorboard/internal/platform/config"
)

func main() {
	cfg, err := tokencmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := tokencmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("mint token: %v", err)
	}
}
