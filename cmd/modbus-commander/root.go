package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/edgeo-scada/modbus-commander/internal/cli"
	"github.com/edgeo-scada/modbus-commander/internal/device"
	"github.com/edgeo-scada/modbus-commander/internal/dispatch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const noActionMessage = "No action specified. Use --help to see available options."

// newRootCmd builds the command. A nil v uses the global viper instance.
func newRootCmd(v *viper.Viper) *cobra.Command {
	if v == nil {
		v = viper.GetViper()
	}

	cmd := &cobra.Command{
		Use:   "modbus-commander [flags] <action>...",
		Short: "Read and write Modbus coils and holding registers",
		Long: `modbus-commander reads and writes coils and holding registers on a
Modbus TCP (or RTU) device. Action flags may be repeated and mixed; they run
in the order given, over a single connection.

Addresses, counts and values accept decimal, 0x hex, 0b binary and 0o octal.

Examples:
  # Read coil 0 and holding registers 0x10-0x13
  modbus-commander -i 192.168.1.100 --read-coil 0 --read-registers 0x10 4

  # Switch two coils
  modbus-commander --write-coils 1 on 2 off

  # Write three consecutive registers starting at 0x20
  modbus-commander --write-registers 0x20 100 200 300`,
		Version: version,
		// Action flags take several values each, so arguments are scanned
		// by cli.ParseArgs instead of cobra.
		DisableFlagParsing: true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
	}

	fs := cmd.Flags()
	fs.String("config", "", "config file (default: $HOME/.modbus-commander.yaml)")
	cli.AddFlags(fs)
	if err := cli.BindFlags(v, fs); err != nil {
		panic(err)
	}

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, args []string) error {
	fs := cmd.Flags()

	actions, err := cli.ParseArgs(fs, args)
	if cli.IsHelp(err) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	if showVersion, _ := fs.GetBool("version"); showVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", cmd.Name(), cmd.Version)
		return nil
	}

	cfgFile, _ := fs.GetString("config")
	if err := initConfig(v, cfgFile); err != nil {
		return err
	}

	opts, err := cli.LoadOptions(v, actions)
	if err != nil {
		return err
	}

	// Everything past this point is a runtime failure, not a usage problem.
	cmd.SilenceUsage = true

	logger := newLogger(cmd.ErrOrStderr(), opts.Debug)
	if opts.Debug {
		if used := v.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "=== Debug: parsed options ===")
		fmt.Fprint(cmd.ErrOrStderr(), cli.Dump(opts))
	}

	if len(opts.Actions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), noActionMessage)
		return nil
	}

	conn, err := device.Open(device.Config{
		Host:       opts.Connection.Address,
		Port:       opts.Connection.Port,
		Timeout:    opts.Connection.Timeout(),
		UnitID:     opts.Connection.UnitID,
		Driver:     opts.Driver,
		SerialPort: opts.Connection.SerialPort,
		BaudRate:   opts.Connection.BaudRate,
	}, device.WithLogger(logger))
	if err != nil {
		return err
	}
	defer conn.Close()

	if opts.Debug {
		fmt.Fprintln(cmd.ErrOrStderr(), "Connected successfully!")
	}

	d := dispatch.New(conn, newReporter(cmd.OutOrStdout(), opts), dispatch.WithLogger(logger))
	d.Run(opts.Actions)

	m := d.Metrics()
	logger.Debug("run complete",
		"records", m.Records.Value(),
		"succeeded", m.Succeeded.Value(),
		"failed", m.Failed.Value(),
		"invalid", m.Invalid.Value(),
		"avg_latency_ms", m.Latency.Stats().Avg,
	)

	return nil
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".modbus-commander")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MODBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil, cfgFile == "" && errors.As(err, &notFound):
		return nil
	default:
		return fmt.Errorf("read config: %w", err)
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func newReporter(w io.Writer, opts *cli.Options) dispatch.Reporter {
	if opts.Output == cli.OutputJSON {
		return dispatch.NewJSONReporter(w)
	}
	return dispatch.NewTextReporter(w, !opts.NoColor)
}
