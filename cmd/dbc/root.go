package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dbcore/dbc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyURI    = "uri"
	keyFormat = "format"
)

type (
	// Config wires the command to its output streams and providers.
	Config struct {
		Out       io.Writer
		Err       io.Writer
		Providers []ProviderFactory
	}

	Cmd struct {
		rootCmd   *cobra.Command
		v         *viper.Viper
		out       io.Writer
		err       io.Writer
		factories []ProviderFactory
		registry  *dbc.Registry
		logger    *slog.Logger
		rootFlags rootFlags
		execFlags execFlags
	}

	rootFlags struct {
		cfgFile   string
		debugMode bool
	}

	execFlags struct {
		params []string
		tx     bool
	}
)

func New(cfg Config) *Cmd {
	c := &Cmd{
		v:         viper.New(),
		out:       cfg.Out,
		err:       cfg.Err,
		factories: cfg.Providers,
	}
	if c.out == nil {
		c.out = io.Discard
	}
	if c.err == nil {
		c.err = io.Discard
	}

	rootCmd := &cobra.Command{
		Use:   "dbc",
		Short: "Query databases through dbc providers",
		Long: `Query databases through dbc providers. The database is selected by a
"<scheme>:<payload>" URI; the scheme picks the provider.`,
		PersistentPreRunE: c.initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.SetOut(c.out)
	rootCmd.SetErr(c.err)
	rootCmd.PersistentFlags().StringVar(&c.rootFlags.cfgFile, "config", "", "config file (default is .dbc.yaml in . or $XDG_CONFIG_HOME)")
	rootCmd.PersistentFlags().BoolVar(&c.rootFlags.debugMode, "debug", false, "turn on debug output")
	rootCmd.PersistentFlags().String(keyURI, "", "database uri, e.g. sqlite:app.db")
	rootCmd.PersistentFlags().String(keyFormat, "table", "output format: table, json or yaml")
	_ = c.v.BindPFlag(keyURI, rootCmd.PersistentFlags().Lookup(keyURI))
	_ = c.v.BindPFlag(keyFormat, rootCmd.PersistentFlags().Lookup(keyFormat))
	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.getQueryCmd())
	rootCmd.AddCommand(c.getExecCmd())
	rootCmd.AddCommand(c.getProvidersCmd())
	return c
}

func (c *Cmd) Execute(args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set, then registers
// the providers.
func (c *Cmd) initConfig(cmd *cobra.Command, args []string) error {
	if c.rootFlags.cfgFile != "" {
		c.v.SetConfigFile(c.rootFlags.cfgFile)
	} else {
		c.v.SetConfigName(".dbc")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if cfgdir, err := os.UserConfigDir(); err == nil {
			c.v.AddConfigPath(cfgdir)
		}
	}

	c.v.SetEnvPrefix("DBC")
	c.v.AutomaticEnv()
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "__"))

	level := slog.LevelWarn
	if c.rootFlags.debugMode {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.err, &slog.HandlerOptions{Level: level}))

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.rootFlags.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed reading config file: %w", err)
		}
	} else {
		c.logger.Debug("using config file", slog.String("path", c.v.ConfigFileUsed()))
	}

	c.registry = dbc.NewRegistry(dbc.RegistryConfig{Logger: c.logger})
	for _, f := range c.factories {
		p, err := f(c.logger)
		if err != nil {
			return fmt.Errorf("failed creating provider: %w", err)
		}
		if err := c.registry.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cmd) open() (dbc.Connection, error) {
	uri := c.v.GetString(keyURI)
	if uri == "" {
		return nil, errors.New("no database uri: set --uri, DBC_URI or uri in the config file")
	}
	return c.registry.Open(uri)
}
