package main

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/backend/sqlite"
	"github.com/spf13/cobra"
)

// ProviderFactory builds one provider with the command's logger.
type ProviderFactory func(logger *slog.Logger) (dbc.Provider, error)

func defaultProviders() []ProviderFactory {
	return append([]ProviderFactory{
		func(logger *slog.Logger) (dbc.Provider, error) {
			return sqlite.New(sqlite.Config{BusyTimeout: 5000, Logger: logger})
		},
	}, cgoProviders...)
}

func (c *Cmd) getProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Lists registered providers",
		Long:  `Lists registered providers in resolution order with the URI schemes they serve.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCHEMES")
			for _, p := range c.registry.Providers() {
				schemes := "-"
				if s, ok := p.(interface{ Schemes() []string }); ok {
					schemes = strings.Join(s.Schemes(), ",")
				}
				fmt.Fprintf(w, "%s\t%s\n", p.Name(), schemes)
			}
			return w.Flush()
		},
	}
}
