package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/storage"
	"github.com/pders01/brief/internal/tui"
	"github.com/pders01/brief/internal/validation"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	backend    string
	category   string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "brief",
		Short: "brief - search the news from your terminal",
		Long: `brief searches a news source for a keyword and reveals the results
page by page: a typed header, the result list, then the hot topics.

Sources are a news API, a set of RSS/Atom feeds, the local archive of
previously seen articles, or built-in mock data.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ~/.config/brief/config.toml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database file (overrides config)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "source backend: api, rss, local or mock (overrides config)")
	root.PersistentFlags().StringVar(&opts.category, "category", "", "only search articles of this category (api and mock backends)")
	root.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "skip startup banner")

	root.AddCommand(
		newVersionCmd(),
		newGenerateConfigCmd(),
		newSearchCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// loadConfig reads the config, applies flag overrides and starts logging.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	if opts.category != "" {
		cfg.Source.Category = opts.category
	}
	if opts.backend != "" {
		cfg.Source.Backend = opts.backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	path, err := validation.DataPath(cfg.Database.Path, false)
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := storage.Open(path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

// loadCredentials returns the persisted login, or anonymous credentials
// when nobody is signed in.
func loadCredentials(store *storage.Store) (*storage.Login, error) {
	login, err := store.LoadLogin()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return login, err
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if !opts.quiet {
		tui.ShowBanner(Version)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	login, err := loadCredentials(store)
	if err != nil {
		return err
	}

	src, err := buildSource(cfg, store, mockLatency)
	if err != nil {
		return err
	}
	defer src.Close()

	tuiOpts := []tui.Option{tui.WithCredentials(login.Credentials())}
	if src.listener != nil {
		tuiOpts = append(tuiOpts, tui.WithUpdateListener(src.listener))
	}
	if src.recorder != nil {
		tuiOpts = append(tuiOpts, tui.WithViewRecorder(src.recorder))
	}

	app := tui.NewApp(store, cfg, src.fetcher, tuiOpts...)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
