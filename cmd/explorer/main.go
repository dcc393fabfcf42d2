// Command explorer runs graph queries from the terminal against the configured data source.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kgexplorer/infrastructure/config"
	"kgexplorer/infrastructure/di"
)

type rootOptions struct {
	configFile string
	fixture    string
	apiURL     string
	jsonOutput bool
	noColor    bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, bad.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "explorer",
		Short:         "Explore a knowledge graph from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file (defaults to CONFIG_FILE and the environment)")
	flags.StringVar(&opts.fixture, "fixture", "", "serve queries from a YAML fixture instead of the graph API")
	flags.StringVar(&opts.apiURL, "api", "", "graph API base URL")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of tables")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newConceptCmd(opts),
		newNeighborhoodCmd(opts),
		newPathCmd(opts),
		newVocabularyCmd(opts),
		newExplorersCmd(opts),
	)
	return root
}

// loadConfig layers the command line flags over the file or environment configuration
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.fixture != "" {
		cfg.DataSource = config.DataSourceMemory
		cfg.FixturePath = o.fixture
	}
	if o.apiURL != "" {
		cfg.DataSource = config.DataSourceHTTP
		cfg.GraphAPIURL = o.apiURL
	}

	// A one-shot command has no use for hot reloading
	cfg.ConfigFile = ""
	cfg.LogLevel = "error"
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// container builds the application and runs the event hub until ctx ends
func (o *rootOptions) container(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}

	hubCtx, cancel := context.WithCancel(ctx)
	go container.Hub.Run(hubCtx)

	return container, func() {
		cancel()
		<-container.Hub.Done()
		cleanup()
		_ = container.Logger.Sync()
	}, nil
}
