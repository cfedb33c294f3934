package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tallyhq/tally/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the JSON API server. The server runs until interrupted and
shuts down gracefully, draining in-flight requests.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	config := server.DefaultConfig()
	if addr := viper.GetString("server.addr"); addr != "" {
		config.Addr = addr
	}

	return server.New(store, config).Run(ctx)
}
