package main

import "time"

// RunFlags holds flags for the run command. Flag values fill in a run
// profile when no config file is given and override it when one is.
type RunFlags struct {
	ConfigPath string

	Name    string
	WorkDir string
	Env     []string

	Stdin  string
	Stdout string
	Stderr string

	NewGroup          bool
	NewSession        bool
	DelegateInterrupt bool

	LogDir string

	HistoryDSN string
	StatusAddr string

	Grace   time.Duration
	Verbose bool
}
