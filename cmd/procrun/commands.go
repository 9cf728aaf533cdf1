package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomjaguarpaw/process"
	"github.com/tomjaguarpaw/process/internal/config"
	"github.com/tomjaguarpaw/process/internal/history"
	"github.com/tomjaguarpaw/process/internal/history/factory"
	"github.com/tomjaguarpaw/process/internal/logger"
	"github.com/tomjaguarpaw/process/internal/server"
)

const version = "0.1.0"

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "procrun",
		Short:         "Run a child process with managed lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := &RunFlags{}
	runCmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Spawn a command, wait for it, and propagate its exit code",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(flags, args)
		},
	}
	f := runCmd.Flags()
	f.StringVarP(&flags.ConfigPath, "config", "c", "", "run profile file (toml/yaml)")
	f.StringVar(&flags.Name, "name", "", "process name for logs and history")
	f.StringVar(&flags.WorkDir, "workdir", "", "working directory")
	f.StringArrayVar(&flags.Env, "env", nil, "extra KEY=VALUE environment entries")
	f.StringVar(&flags.Stdin, "stdin", "", "stdin mode: inherit|pipe|null|file:<path>")
	f.StringVar(&flags.Stdout, "stdout", "", "stdout mode: inherit|pipe|null|file:<path>")
	f.StringVar(&flags.Stderr, "stderr", "", "stderr mode: inherit|pipe|null|file:<path>")
	f.BoolVar(&flags.NewGroup, "new-group", false, "start the child in its own process group")
	f.BoolVar(&flags.NewSession, "new-session", false, "start the child in a new session")
	f.BoolVar(&flags.DelegateInterrupt, "delegate-interrupt", false, "forward Ctrl-C to the child instead of handling it")
	f.StringVar(&flags.LogDir, "log-dir", "", "capture child stdout/stderr into rotating logs under this directory")
	f.StringVar(&flags.HistoryDSN, "history", "", "record lifecycle events to this sink DSN")
	f.StringVar(&flags.StatusAddr, "status-addr", "", "serve /status and /metrics on this address")
	f.DurationVar(&flags.Grace, "grace", 5*time.Second, "grace period before force-killing on shutdown")
	f.BoolVar(&flags.Verbose, "verbose", false, "debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the procrun version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("procrun " + version)
		},
	}

	root.AddCommand(runCmd, versionCmd)
	return root
}

// profileFor merges the config file (when given) with command-line
// overrides into one run profile.
func profileFor(flags *RunFlags, args []string) (*config.FileConfig, error) {
	fc := &config.FileConfig{}
	if flags.ConfigPath != "" {
		loaded, err := process.LoadProfile(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		fc = loaded
	}
	if len(args) > 0 {
		fc.Command = args[0]
		fc.Args = args[1:]
	}
	if fc.Command == "" {
		return nil, errors.New("no command given: pass one after --, or use --config")
	}
	if flags.Name != "" {
		fc.Name = flags.Name
	}
	if fc.Name == "" {
		fc.Name = fc.Command
	}
	if flags.WorkDir != "" {
		fc.WorkDir = flags.WorkDir
	}
	fc.Env = append(fc.Env, flags.Env...)
	if flags.Stdin != "" {
		fc.Stdin = flags.Stdin
	}
	if flags.Stdout != "" {
		fc.Stdout = flags.Stdout
	}
	if flags.Stderr != "" {
		fc.Stderr = flags.Stderr
	}
	fc.NewGroup = fc.NewGroup || flags.NewGroup
	fc.NewSession = fc.NewSession || flags.NewSession
	fc.DelegateInterrupt = fc.DelegateInterrupt || flags.DelegateInterrupt
	if fc.DelegateInterrupt {
		fc.NewGroup = true
	}
	if flags.LogDir != "" {
		fc.Log.Dir = flags.LogDir
	}
	if flags.HistoryDSN != "" {
		fc.HistoryDSN = flags.HistoryDSN
	}
	if flags.StatusAddr != "" {
		fc.StatusAddr = flags.StatusAddr
	}
	return fc, nil
}

func runProcess(flags *RunFlags, args []string) error {
	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	log := logger.Setup(level, true)

	fc, err := profileFor(flags, args)
	if err != nil {
		return err
	}
	cfg, opened, err := fc.Spec()
	if err != nil {
		return err
	}
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	var sink process.HistorySink
	if fc.HistoryDSN != "" {
		s, err := factory.NewSinkFromDSN(fc.HistoryDSN)
		if err != nil {
			return fmt.Errorf("history sink: %w", err)
		}
		sink = s
	}

	h, pipes, err := process.Spawn(cfg)
	if err != nil {
		return err
	}
	pid, _ := h.Pid()
	log.Info("spawned", "name", fc.Name, "pid", pid, "command", fc.Command)

	if sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			ev := history.Event{
				Type:       history.EventSpawn,
				OccurredAt: time.Now().UTC(),
				Name:       fc.Name,
				PID:        pid,
				Command:    fc.Command,
			}
			if err := sink.Send(ctx, ev); err != nil {
				log.Warn("history sink failed", "event", ev.Type, "error", err)
			}
		}()
	}

	var copies sync.WaitGroup
	if fc.Log.Enabled() {
		outW, errW, werr := fc.Log.Writers(fc.Name)
		if werr != nil {
			_ = h.Terminate(flags.Grace)
			return werr
		}
		capture(&copies, pipes.Stdout, outW)
		capture(&copies, pipes.Stderr, errW)
	}

	if fc.StatusAddr != "" {
		if err := process.RegisterMetricsDefault(); err != nil {
			log.Warn("metrics registration failed", "error", err)
		}
		reg := server.NewRegistry()
		reg.Add(fc.Name, fc.Command, h)
		srv := server.New(fc.StatusAddr, reg)
		defer func() { _ = srv.Close() }()
		log.Info("status server listening", "addr", fc.StatusAddr)
	}

	var notified <-chan error
	if sink != nil {
		notified = process.Notify(h, fc.Name, fc.Command, sink)
	}

	st, err := h.Wait(context.Background())
	copies.Wait()
	if err != nil {
		return err
	}
	if notified != nil {
		if nerr := <-notified; nerr != nil {
			log.Warn("history sink failed", "error", nerr)
		}
	}
	log.Info("exited", "name", fc.Name, "status", st.String())
	if !st.Success() {
		os.Exit(exitCode(st))
	}
	return nil
}

// capture copies one piped stream into a rotating log writer, closing both
// ends when the stream is drained.
func capture(wg *sync.WaitGroup, r *os.File, w io.WriteCloser) {
	if r == nil || w == nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(w, r)
		_ = r.Close()
		_ = w.Close()
	}()
}

func exitCode(st process.Status) int {
	if st.Interrupted {
		return 130
	}
	if st.Code != 0 {
		return st.Code
	}
	return 1
}
