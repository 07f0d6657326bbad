package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/reveal"
	"github.com/pders01/brief/internal/session"
	"github.com/pders01/brief/internal/storage"
	"github.com/pders01/brief/internal/tui"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
			fmt.Fprintln(out, "Terminal news search")
			fmt.Fprintln(out, "github.com/pders01/brief")
		},
	}
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "brief", "config.toml")
}

func newGenerateConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = defaultConfigPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "where to write the file (default: ~/.config/brief/config.toml)")
	return cmd
}

// searchOptions are the flags of the headless search command.
type searchOptions struct {
	more    int
	all     bool
	asJSON  bool
	noSave  bool
	hotOnly bool
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Run one search and print the disclosed results",
		Long: `Run one search without the TUI. The first page is printed; --more N
discloses N further pages, --all discloses everything.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, global, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().IntVarP(&opts.more, "more", "m", 0, "disclose this many extra pages")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "disclose every result")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the disclosed items as JSON")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not archive results or record the query")
	cmd.Flags().BoolVar(&opts.hotOnly, "hot", false, "print only the hot topics")
	return cmd
}

func runSearch(cmd *cobra.Command, global *globalOptions, opts *searchOptions, query string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	defer debuglog.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	login, err := loadCredentials(store)
	if err != nil {
		return err
	}

	src, err := buildSource(cfg, store, 0)
	if err != nil {
		return err
	}
	defer src.Close()

	lc := session.New(src.fetcher, session.Options{
		PageSize:          cfg.Results.PageSize,
		HotTopicThreshold: cfg.Results.HotTopicThreshold,
		Credentials:       login.Credentials(),
	})

	req, ok := lc.Submit(query)
	if !ok {
		return fmt.Errorf("empty query")
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt)
	defer stop()
	resp := lc.Fetch(ctx, req)
	lc.Complete(resp)

	// Without a view there is nothing to animate; raise every signal at once.
	for _, sig := range []reveal.Signal{reveal.SignalHeaderDone, reveal.SignalBodyDone, reveal.SignalSidePanelDone} {
		lc.Signal(req.Generation, sig)
	}

	if opts.all {
		lc.Disclosure().ShowAll()
	} else {
		for i := 0; i < opts.more && lc.Disclosure().CanExpand(); i++ {
			lc.Expand()
		}
	}

	if !opts.noSave {
		persistSearch(store, src, cfg, lc, resp)
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		items := lc.Visible()
		if opts.hotOnly {
			items = limitItems(lc.Results().HotTopics(), cfg.Results.HotTopicLimit)
		}
		if err := writeJSON(out, items); err != nil {
			return err
		}
	} else {
		printResults(out, cfg, lc, opts.hotOnly)
	}

	if lc.Outcome() == session.OutcomeFetchError {
		return fmt.Errorf("%s: %w", tui.MsgSourceDown, lc.Err())
	}
	return nil
}

// persistSearch records the query and archives fresh results the same way
// the TUI does.
func persistSearch(store *storage.Store, src *source, cfg *config.Config, lc *session.Lifecycle, resp session.Response) {
	if err := store.AddRecentQuery(lc.Query()); err != nil {
		debuglog.Warnf("record query: %v", err)
	}
	if resp.Err != nil || len(resp.Items) == 0 {
		return
	}
	switch cfg.Source.Backend {
	case config.BackendAPI, config.BackendMock:
	default:
		return
	}
	if err := store.SaveItems(cfg.Source.Backend, resp.Items); err != nil {
		debuglog.Warnf("save items: %v", err)
		return
	}
	if src.listener != nil {
		src.listener.OnItemsSaved(cfg.Source.Backend, resp.Items)
	}
}

func limitItems(items []results.Item, limit int) []results.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func writeJSON(w io.Writer, items []results.Item) error {
	if items == nil {
		items = []results.Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func printResults(w io.Writer, cfg *config.Config, lc *session.Lifecycle, hotOnly bool) {
	fmt.Fprintf(w, "Results for '%s'\n\n", lc.Query())

	switch lc.Outcome() {
	case session.OutcomeEmpty:
		fmt.Fprintln(w, tui.MsgNoResultsFor(lc.Query()))
		return
	case session.OutcomeFetchError:
		fmt.Fprintf(w, "%s: %v\n", tui.MsgSourceDown, lc.Err())
		return
	}

	if !hotOnly {
		for i, item := range lc.Visible() {
			printItem(w, i+1, item)
		}
		st := lc.Disclosure().State()
		fmt.Fprintln(w, tui.MsgShowing(st.Rendered(), st.Total, st.Remaining()))
	}

	hot := limitItems(lc.Results().HotTopics(), cfg.Results.HotTopicLimit)
	if len(hot) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hot topics")
		for i, item := range hot {
			printItem(w, i+1, item)
		}
	}
}

func printItem(w io.Writer, n int, item results.Item) {
	fmt.Fprintf(w, "%2d. %s\n", n, item.Title)
	meta := []string{}
	if item.CompanyName != "" {
		meta = append(meta, item.CompanyName)
	}
	meta = append(meta, fmt.Sprintf("%d views", item.ViewCount))
	if !item.Published.IsZero() {
		meta = append(meta, item.Published.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "    %s\n", strings.Join(meta, " • "))
	if item.URL != "" {
		fmt.Fprintf(w, "    %s\n", item.URL)
	}
	fmt.Fprintln(w)
}

func newLoginCmd(global *globalOptions) *cobra.Command {
	var user, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store credentials sent with every search",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("BRIEF_TOKEN")
			}
			return withStore(global, func(store *storage.Store) error {
				login, err := store.SaveLogin(user, token)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (session %s)\n", login.LoginID, login.SessionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "login id")
	cmd.Flags().StringVarP(&token, "token", "t", "", "access token (default: $BRIEF_TOKEN)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLogoutCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(global, func(store *storage.Store) error {
				if err := store.ClearLogin(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newHistoryCmd(global *globalOptions) *cobra.Command {
	var (
		limit int
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(global, func(store *storage.Store) error {
				out := cmd.OutOrStdout()
				if clearAll {
					if err := store.ClearHistory(); err != nil {
						return err
					}
					fmt.Fprintln(out, tui.MsgHistoryCleared)
					return nil
				}
				queries, err := store.RecentQueries(limit)
				if err != nil {
					return err
				}
				if len(queries) == 0 {
					fmt.Fprintln(out, "No recent searches")
					return nil
				}
				for _, q := range queries {
					fmt.Fprintf(out, "%-30s %3d× %s\n", q.Query, q.Count, q.LastUsed.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many entries")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete the history")
	return cmd
}

// withStore runs fn against the configured database.
func withStore(global *globalOptions, fn func(*storage.Store) error) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	defer debuglog.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// contextOrBackground returns the command context, which is nil when a
// command runs without Execute.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
