// Package config loads run profiles for the procrun CLI from TOML or YAML
// files via viper and translates them into spawn configurations.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tomjaguarpaw/process/internal/logger"
	"github.com/tomjaguarpaw/process/internal/proc"
)

// FileConfig is the top-level structure of a run profile.
type FileConfig struct {
	Name    string   `mapstructure:"name"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	WorkDir string   `mapstructure:"workdir"`
	// Env entries are KEY=VALUE pairs appended to the parent environment
	// unless ReplaceEnv is set, in which case they are the whole child
	// environment.
	Env        []string `mapstructure:"env"`
	ReplaceEnv bool     `mapstructure:"replace_env"`

	// Stdio modes: "inherit" (default), "pipe", "null", or "file:<path>".
	Stdin  string `mapstructure:"stdin"`
	Stdout string `mapstructure:"stdout"`
	Stderr string `mapstructure:"stderr"`

	NewGroup          bool `mapstructure:"new_group"`
	NewSession        bool `mapstructure:"new_session"`
	DelegateInterrupt bool `mapstructure:"delegate_interrupt"`

	// Log configures rotating file capture of piped stdout/stderr.
	Log logger.Config `mapstructure:"log"`

	// HistoryDSN selects an optional lifecycle-event sink.
	HistoryDSN string `mapstructure:"history_dsn"`
	// StatusAddr starts the HTTP status server when set (host:port).
	StatusAddr string `mapstructure:"status_addr"`
}

// Load reads a run profile. The config type is derived from the file
// extension; ".toml" and ".yaml"/".yml" are supported.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	if fc.Command == "" {
		return nil, fmt.Errorf("config %s: command is required", path)
	}
	if fc.Name == "" {
		fc.Name = fc.Command
	}
	return &fc, nil
}

// Spec translates the profile into a spawn configuration. Files opened for
// "file:" directives are returned so the caller can close them after spawn.
func (fc *FileConfig) Spec() (proc.Config, []*os.File, error) {
	cfg := proc.Config{
		Command:           fc.Command,
		Args:              fc.Args,
		Dir:               fc.WorkDir,
		NewProcessGroup:   fc.NewGroup,
		NewSession:        fc.NewSession,
		DelegateInterrupt: fc.DelegateInterrupt,
	}
	if len(fc.Env) > 0 {
		if fc.ReplaceEnv {
			cfg.Env = fc.Env
		} else {
			cfg.Env = append(os.Environ(), fc.Env...)
		}
	}

	var opened []*os.File
	closeOpened := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	// Piped capture takes precedence over the configured stdout/stderr
	// modes so the CLI can copy output into rotating logs.
	capture := fc.Log.Enabled()

	var err error
	cfg.Stdin, err = parseStdio(fc.Stdin, false, true, &opened)
	if err == nil {
		cfg.Stdout, err = parseStdio(fc.Stdout, capture, false, &opened)
	}
	if err == nil {
		cfg.Stderr, err = parseStdio(fc.Stderr, capture, false, &opened)
	}
	if err != nil {
		closeOpened()
		return proc.Config{}, nil, err
	}
	return cfg, opened, nil
}

func parseStdio(mode string, forcePipe, isInput bool, opened *[]*os.File) (proc.Stdio, error) {
	if forcePipe && (mode == "" || mode == "inherit") {
		return proc.Pipe(), nil
	}
	switch {
	case mode == "" || mode == "inherit":
		return proc.Inherit(), nil
	case mode == "pipe":
		return proc.Pipe(), nil
	case mode == "null":
		return proc.Null(), nil
	case strings.HasPrefix(mode, "file:"):
		path := strings.TrimPrefix(mode, "file:")
		var f *os.File
		var err error
		if isInput {
			f, err = os.Open(path)
		} else {
			f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		}
		if err != nil {
			return proc.Stdio{}, err
		}
		*opened = append(*opened, f)
		return proc.UseFile(f), nil
	}
	return proc.Stdio{}, fmt.Errorf("invalid stdio mode %q", mode)
}
