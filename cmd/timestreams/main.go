package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"timestreams/internal/app"
	"timestreams/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation names the CLI command being run (e.g. "serve", "publish").
func newApp(ctx context.Context, operation string, args []string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(ctx, cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// timeFlag parses an optional RFC 3339 timestamp or YYYY-MM-DD date flag.
func timeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, raw)
}

var rootCmd = &cobra.Command{
	Use:   "timestreams",
	Short: "Serve and publish dated post streams",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Streams:  %s\n", cfg.Provider.Root)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Provider: %s\n", describeProvider(cfg.Provider))
		fmt.Printf("Listen:   %s\n", cfg.Server.Listen)
		fmt.Printf("History:  %s\n", describeDatabase(cfg.Database))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve posts over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "serve", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(ctx)
	},
}

var showCmd = &cobra.Command{
	Use:   "show STREAM ID",
	Short: "Show a post and its links",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "show", args)
		if err != nil {
			return err
		}
		defer a.Close()

		post, store, err := a.Resolve(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		body, err := a.Body(ctx, store, post)
		if err != nil {
			return err
		}
		printPost(os.Stdout, post, body, terminalWidth())
		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest STREAM",
	Short: "Show the most recent post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := timeFlag(cmd, "before")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "latest", args)
		if err != nil {
			return err
		}
		defer a.Close()

		post, store, err := a.Latest(ctx, args[0], before)
		if err != nil {
			return err
		}
		body, err := a.Body(ctx, store, post)
		if err != nil {
			return err
		}
		printPost(os.Stdout, post, body, terminalWidth())
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish STREAM FILE",
	Short: "Publish a file as a new post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := timeFlag(cmd, "at")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "publish", args)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Publish(ctx, args[0], args[1], at)
		if err != nil {
			return err
		}
		fmt.Printf("Published %s\n", id)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View served request history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()
		a, err := newApp(ctx, "history", args)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.History(ctx, limit)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No request history.")
			return nil
		}
		printHistory(os.Stdout, records)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(latestCmd)
	latestCmd.Flags().String("before", "", "Only consider posts on or before this time")
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().String("at", "", "Post time (default now)")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of requests to show")
}
