package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/internal/config"
	"github.com/andyle182810/orchestrator-dashboard/logutil"
	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Web dashboard for the container orchestrator API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("log", "l", "", "Override LOG_LEVEL. Available: trace, debug, info, warn, error, fatal")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newOverviewCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the environment and applies the --log override before
// configuring the global logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log"); level != "" {
		if err := logutil.ValidLevel(level); err != nil {
			return nil, fmt.Errorf("invalid --log: %w", err)
		}

		cfg.LogLevel = level
	}

	logutil.Setup(cfg.LogLevel, cfg.LogPretty)

	return cfg, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, the API proxy and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := newApplication(cfg)
			if err != nil {
				return err
			}

			return app.run(cmd.Context())
		},
	}
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Request an orchestrator API path and print the JSON answer",
		Long: "Request an orchestrator API path, relative to /api/v1, and print the JSON answer.\n" +
			"Non-2xx answers are reported as \"<code> (<status>): <message>\".",
		Example: "  dashboard get /nodes\n  dashboard get /deployments/web --method DELETE",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			method, _ := cmd.Flags().GetString("method")
			data, _ := cmd.Flags().GetString("data")

			opts := []apiclient.RequestOption{apiclient.WithMethod(method)}
			if data != "" {
				opts = append(opts, apiclient.WithJSONBody(json.RawMessage(data)))
			}

			body, err := apiclient.Request[json.RawMessage](cmd.Context(), newAPIClient(cfg, nil), args[0], opts...)
			if err != nil {
				return describe(err)
			}

			return printJSON(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringP("method", "X", "GET", "HTTP method")
	cmd.Flags().StringP("data", "d", "", "JSON request body")

	return cmd
}

func newOverviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Print the cluster resource counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			overview := orchestrator.New(newAPIClient(cfg, nil)).Overview(cmd.Context())

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), overview)
			}

			out := cmd.OutOrStdout()

			for _, stat := range overview.Stats {
				line := stat.Value()
				if stat.Error != "" {
					line += "  (" + stat.Error + ")"
				}

				fmt.Fprintf(out, "%-12s %s\n", stat.Label, line)
			}

			if !overview.Connected() {
				fmt.Fprintln(out, "orchestrator API is not connected")
			}

			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the overview as JSON")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dashboard %s (%s) %s\n", version, commit, buildDate)
		},
	}
}

func describe(err error) error {
	clientErr, ok := apiclient.AsClientError(err)
	if !ok {
		return err
	}

	return fmt.Errorf("%s (%d): %s", clientErr.Code, clientErr.Status, clientErr.Message) //nolint:err113
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}
