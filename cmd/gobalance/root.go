/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/nabbar/gobalance/config"
	"github.com/nabbar/gobalance/dispatcher"
	liberr "github.com/nabbar/gobalance/errors"
	"github.com/nabbar/gobalance/hostfile"
	"github.com/nabbar/gobalance/host"
	"github.com/nabbar/gobalance/listener"
	liblog "github.com/nabbar/gobalance/logger"
	"github.com/nabbar/gobalance/worker"
)

const envPrefix = "GOBALANCE"

func run(args []string) int {
	cfgFile := ""
	cfg := config.Default()
	runID := uuid.New().String()

	root := &cobra.Command{
		Use:           "gobalance [port]",
		Short:         "Layer-4 TCP reverse proxy with round-robin upstream selection",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loadViper(cfgFile, cmd.Root(), &cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, a []string) error {
			applyPositionalPort(cmd, a, &cfg)
			return serve(cmd, &cfg, runID)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgFile, "config", "", "optional YAML configuration file")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "listener port")
	flags.StringVarP(&cfg.HostsFile, "hosts", "H", cfg.HostsFile, "path to the upstream host list")
	flags.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "number of worker engines")
	flags.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "per-connection forwarding buffer size in bytes")
	flags.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "per-attempt upstream connect timeout")
	flags.DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "worker poller bounded-wait interval")
	flags.DurationVar(&cfg.CooldownBase, "cooldown-base", cfg.CooldownBase, "base backoff duration for a failing host")
	flags.UintVar(&cfg.CooldownCap, "cooldown-cap", cfg.CooldownCap, "exponent cap on host backoff")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "error, warn, info, or debug")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	flags.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable colored startup banner and log output")

	root.AddCommand(newVersionCommand())
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return 0
}

// loadViper layers environment variables (GOBALANCE_*) and an optional
// YAML file under the already-parsed flag values, per SPEC_FULL.md
// §8.2. Flags win: BindPFlags is applied after the file/env layers are
// registered, so an explicit flag always overrides either.
func loadViper(cfgFile string, cmd *cobra.Command, cfg *config.Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read config file %s: %v\n", cfgFile, err)
		}
	}

	_ = v.BindPFlags(cmd.Flags())
	if err := v.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not apply environment/file configuration: %v\n", err)
	}

	jwalterweatherman.SetStdoutThreshold(jwalterweatherman.LevelWarn)
}

// applyPositionalPort implements spec.md §6's positional-port fallback:
// an invalid or missing positional argument falls back to the already-
// resolved cfg.Port (flag/env/file/default) with a warning, rather than
// aborting startup. An explicit --port flag always wins.
func applyPositionalPort(cmd *cobra.Command, args []string, cfg *config.Config) {
	if len(args) == 0 || cmd.Flags().Changed("port") {
		return
	}

	p, err := strconv.Atoi(args[0])
	if err != nil || p < 1 || p > 65535 {
		fmt.Fprintf(os.Stderr, "warning: invalid port argument %q, falling back to %d\n", args[0], cfg.Port)
		return
	}

	cfg.Port = p
}

func serve(cmd *cobra.Command, cfg *config.Config, runID string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := colorable.NewColorableStdout()
	if cfg.NoColor {
		color.NoColor = true
	}

	log := liblog.New(liblog.Options{
		Level:  liblog.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Color:  !cfg.NoColor,
		Output: out,
	}).With(liblog.Fields{"run_id": runID})

	liblog.CaptureStdLog(log)

	printBanner(out, cfg, runID)

	addrs, err := hostfile.Load(cfg.HostsFile, log)
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		log.Info("host file has no usable entries, nothing to serve", liblog.Fields{"hosts_file": cfg.HostsFile})
		return nil
	}
	log.Info("loaded upstream hosts", liblog.Fields{"count": len(addrs)})

	registry, err := host.NewRegistry(addrs, host.NewRoundRobin(), host.Config{
		CooldownBase: cfg.CooldownBase,
		CooldownCap:  cfg.CooldownCap,
	}, log)
	if err != nil {
		return err
	}

	pool, err := worker.NewPool(cfg.Workers, worker.Config{
		ConnectTimeout: cfg.ConnectTimeout,
		PollTimeout:    cfg.PollTimeout,
	}, registry, log)
	if err != nil {
		return err
	}

	disp := dispatcher.New(pool, log)

	addr := &net.TCPAddr{Port: cfg.Port}
	ln, err := listener.Listen(addr, cfg.BufferSize, log)
	if err != nil {
		return err
	}

	pool.Start()
	go ln.Serve(disp)

	log.Info("listening", liblog.Fields{"addr": ln.Addr().String(), "workers": cfg.Workers})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down", liblog.Fields{})
	_ = ln.Close()
	pool.Stop()

	return nil
}

func printBanner(w io.Writer, cfg *config.Config, runID string) {
	bold := color.New(color.Bold, color.FgCyan).SprintFunc()
	banner := fmt.Sprintf("%s run=%s port=%s workers=%s\n",
		bold("gobalance"), runID, strconv.Itoa(cfg.Port), strconv.Itoa(cfg.Workers))
	_, _ = w.Write([]byte(banner))
}

// exitCodeFor maps a startup failure to a process exit code. Both
// SPEC_FULL.md §6.1 (config validation) and §6.3 (listener bind) name
// "exit 2" for a startup error; an unresolvable host file is the same
// class of failure and shares the code. Anything uncoded is a generic
// failure (1). A successful run, or a host file with zero usable
// entries, returns 0 from run() directly and never reaches here.
func exitCodeFor(err error) int {
	coded, ok := err.(liberr.Error)
	if !ok {
		return 1
	}

	switch coded.Code() {
	case liberr.ConfigInvalid, liberr.ListenerBindFailed, liberr.HostFileMissing:
		return 2
	default:
		return 1
	}
}
