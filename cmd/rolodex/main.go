// Package main provides the rolodex command line tool for keeping track of
// contacts and the meetings held with them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/entrhq/rolodex/pkg/config"
	"github.com/entrhq/rolodex/pkg/directory"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	DataFile    string
	LogLevel    string
	ShowVersion bool
	Args        []string
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("rolodex v%s\n", version)
		return
	}

	if err := run(cliConfig); err != nil {
		log.Printf("rolodex: %v", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML), default ~/.rolodex/config.yaml")
	flag.StringVar(&cliConfig.DataFile, "data", "", "Data file, overrides the configuration")
	flag.StringVar(&cliConfig.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rolodex - personal contact and meeting directory\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rolodex [options] <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n%s", usageText())
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rolodex add-contact \"Alice\" \"met at the conference\"\n")
		fmt.Fprintf(os.Stderr, "  rolodex schedule 2030-01-15T10:00 1 2\n")
		fmt.Fprintf(os.Stderr, "  rolodex notes 3 \"agreed on the budget\"\n")
	}

	flag.Parse()
	cliConfig.Args = flag.Args()
	return cliConfig
}

func run(cliConfig *CLIConfig) error {
	if len(cliConfig.Args) == 0 {
		flag.Usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cliConfig.DataFile != "" {
		cfg.DataFile = cliConfig.DataFile
	}
	if cliConfig.LogLevel != "" {
		cfg.LogLevel = cliConfig.LogLevel
	}

	store, err := directory.OpenConfig(cfg)
	if err != nil {
		return err
	}

	loc, _ := cfg.Loc()
	// Close saves any change, even when the command failed
	cmdErr := newCommands(store, os.Stdout, loc).Dispatch(cliConfig.Args)
	if err := store.Close(); err != nil && cmdErr == nil {
		return err
	}
	return cmdErr
}
