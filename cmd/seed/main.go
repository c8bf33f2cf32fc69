// Package main generates simulated study data as CSV.
package main

import (
	"context"
	"flag"
	"os"

	seedcmd "github.com/muridae/tumorboard/internal/cmd/seed"
	"github.com/muridae/tumorboard/internal/platform/config"
)

func main() {
	cfg, err := seedcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := seedcmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("generate data: %v", err)
	}
}
