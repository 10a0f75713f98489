package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"legalscan/internal/config"
	"legalscan/internal/logging"
)

type commandContext struct {
	configFlag *string
	envFlag    *string
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
	}
}

// loadEnv reads the optional env file. Variables already set in the process
// environment win.
func (c *commandContext) loadEnv() error {
	if c.envFlag == nil {
		return nil
	}
	path := strings.TrimSpace(*c.envFlag)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// overrides are command-line values applied on top of the config file.
type overrides struct {
	staging    string
	outputRoot string
	filter     string
	retries    int
	failFast   bool
	noCatalog  bool
	// scan marks commands that never read staging.
	scan bool
}

// loadConfig reads the config file, applies overrides, and resolves it.
func (c *commandContext) loadConfig(cmd *cobra.Command, o overrides) (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.staging != "" {
		staging, err := stagingURL(o.staging)
		if err != nil {
			return nil, err
		}
		cfg.Staging.URL = staging
	}
	if o.outputRoot != "" {
		cfg.Paths.OutputRoot = o.outputRoot
	}
	if cmd.Flags().Changed("filter") {
		cfg.Staging.Filter = o.filter
	}
	if cmd.Flags().Changed("retries") {
		cfg.HTTP.Retries = o.retries
	}
	if o.failFast {
		cfg.Mirror.FailFast = true
	}
	if o.noCatalog {
		cfg.Catalog.Enabled = false
	}
	if o.scan && cfg.Staging.URL == "" && strings.TrimSpace(os.Getenv("LEGALSCAN_STAGING")) == "" {
		root := cfg.Paths.OutputRoot
		if root == "" {
			root = strings.TrimSpace(os.Getenv("LEGALSCAN_OUTPUT_ROOT"))
		}
		if root != "" {
			placeholder, err := stagingURL(root)
			if err != nil {
				return nil, err
			}
			cfg.Staging.URL = placeholder
		}
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

// stagingURL accepts a URL or a bare directory path.
func stagingURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		return raw, nil
	}
	abs, err := config.ExpandPath(raw)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}
