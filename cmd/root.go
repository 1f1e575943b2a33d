package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/s0up4200/szuru/booru"
	"github.com/s0up4200/szuru/config"
	"github.com/s0up4200/szuru/filter"
	"github.com/s0up4200/szuru/szurubooru"
)

var (
	cfgFile    string
	cfg        *config.Config
	logger     zerolog.Logger
	appFs      = afero.NewOsFs()
	client     *szurubooru.Client
	operations *booru.Operations

	// Command flags
	dryRun      bool
	noConfirm   bool
	showDetails bool
	eagerLoad   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "szuru",
	Short: "A command-line client for szurubooru image boards",
	Long: `szuru talks to a szurubooru instance over its HTTP API. It searches,
creates, edits, merges and deletes posts, tags, pools and categories, and
runs filter expressions over search results for batch edits.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "perform a dry run without making changes")
	rootCmd.PersistentFlags().BoolVarP(&noConfirm, "yes", "y", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().BoolVar(&showDetails, "details", false, "show detailed output")
	rootCmd.PersistentFlags().BoolVar(&eagerLoad, "eager", false, "fetch every field of search results")

	rootCmd.AddCommand(testCmd)
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}
	if cmd.Flags().Changed("details") {
		cfg.Safety.ShowDetails = showDetails
	}
	if cmd.Flags().Changed("eager") {
		cfg.Search.EagerLoad = eagerLoad
	}

	endpoint, err := loadEndpoint()
	if err != nil {
		return err
	}

	client, err = szurubooru.NewClient(endpoint, logger,
		szurubooru.WithTimeout(cfg.Server.Timeout),
		szurubooru.WithUserAgent("szuru/"+version),
		szurubooru.WithDefaultPageSize(cfg.Search.PageSize),
		szurubooru.WithDefaultMaxPages(cfg.Search.MaxPages),
	)
	if err != nil {
		return fmt.Errorf("failed to create szurubooru client: %w", err)
	}

	filters := filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	operations = booru.NewOperations(client, logger,
		booru.WithFilters(filters),
		booru.WithConcurrency(cfg.Search.Concurrency),
	)

	logger.Debug().Str("endpoint", endpoint.String()).Msg("Client ready")
	return nil
}

// loadEndpoint prefers a saved endpoint snapshot over the server section
func loadEndpoint() (*szurubooru.Endpoint, error) {
	if path := cfg.Server.EndpointFile; path != "" {
		exists, err := afero.Exists(appFs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to check endpoint file: %w", err)
		}
		if exists {
			endpoint, err := szurubooru.LoadEndpoint(appFs, path)
			if err != nil {
				return nil, fmt.Errorf("failed to load endpoint file: %w", err)
			}
			logger.Debug().Str("path", path).Msg("Loaded endpoint snapshot")
			return endpoint, nil
		}
	}

	endpoint, err := cfg.Server.ResolveEndpoint()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	return endpoint, nil
}

func shutdownApp(cmd *cobra.Command, args []string) error {
	if operations == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return operations.Close(ctx)
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when stderr is a terminal
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// skipInit replaces the root pre-run for commands that need no server
func skipInit(cmd *cobra.Command, args []string) error {
	return nil
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to szurubooru",
	Long:  `Test the connection to your szurubooru instance and display basic information.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Printf("Testing connection to %s...\n", client.Endpoint())

	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Println("✓ Connection successful!")

	info, err := client.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get server info: %w", err)
	}

	fmt.Printf("\nServer Statistics:\n")
	for _, key := range []string{"postCount", "diskUsage", "serverTime"} {
		if v, ok := info[key]; ok {
			fmt.Printf("- %s: %v\n", key, v)
		}
	}

	categories, err := client.ListTagCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tag categories: %w", err)
	}
	if len(categories) > 0 {
		fmt.Printf("\nTag categories:\n")
		for _, category := range categories {
			name, _ := category.Name(ctx)
			usages, _ := category.Usages(ctx)
			fmt.Printf("  • %s (%d tags)\n", name, usages)
		}
	}

	if presets := len(cfg.Filter); presets > 0 {
		fmt.Printf("\nFilter presets: %d\n", presets)
	}
	return nil
}

// batchOptions builds batch settings from config and flags
func batchOptions() booru.BatchOptions {
	return booru.BatchOptions{
		DryRun:  cfg.Safety.DryRun,
		Confirm: cfg.Safety.ConfirmDelete && !noConfirm,
	}
}

func formatOptions() booru.FormatOptions {
	return booru.FormatOptions{ShowDetails: cfg.Safety.ShowDetails}
}
