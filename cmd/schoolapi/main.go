// Command schoolapi serves the school portal API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/JakeFAU/school-portal-api/internal/config"
	"github.com/JakeFAU/school-portal-api/internal/server"
)

type options struct {
	configPath string
	envFile    string
	port       int
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "schoolapi: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}

	app, err := server.Build(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("build app failed: %w", err)
	}
	return app.Run(ctx)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("schoolapi", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before the environment is read")
	flags.IntVarP(&opts.port, "port", "p", 0, "Override server.port")
	if err := flags.Parse(args); err != nil {
		return options{}, fmt.Errorf("parse flags: %w", err)
	}
	return opts, nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
