package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamhub/streamhub/internal/blacklist"
	serverrun "github.com/streamhub/streamhub/internal/cmd/server"
	cfgpkg "github.com/streamhub/streamhub/internal/config"
	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
	logpkg "github.com/streamhub/streamhub/pkg/log"
)

func main() {
	level := os.Getenv("STREAMHUB_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "streamhub",
		Short: "streamhub broker CLI",
		Long:  "streamhub is a single-binary event-streaming broker. This CLI starts the server and manages subscriptions and blacklist rules.",
	}

	rootCmd.AddCommand(newServerCmd())
	rootCmd.AddCommand(newSubscriptionCmd())
	rootCmd.AddCommand(newBlacklistCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the streamhub HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			if logLevel != "" {
				_ = os.Setenv("STREAMHUB_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("STREAMHUB_LOG_FORMAT", logFormat)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  dataDir,
				HTTPAddr: httpAddr,
				Fsync:    mode,
				Config:   cfgpkg.Default(),
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	startCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	startCmd.Flags().String("http", ":8080", "HTTP listen address")
	startCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	startCmd.Flags().String("log-level", os.Getenv("STREAMHUB_LOG_LEVEL"), "Log level: debug|info|warn|error")
	startCmd.Flags().String("log-format", os.Getenv("STREAMHUB_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(startCmd)
	return serverCmd
}

// newSubscriptionCmd wires the admin-facing list/get commands onto the
// public HTTP surface (§6) — these are thin HTTP clients, the same way
// the teacher's namespace-create command called its own HTTP server.
func newSubscriptionCmd() *cobra.Command {
	subCmd := &cobra.Command{Use: "subscription", Short: "Subscription operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			owningApp, _ := cmd.Flags().GetString("owning-application")
			q := url.Values{}
			if owningApp != "" {
				q.Set("owning_application", owningApp)
			}
			return getAndPrint(apiURL() + "/subscriptions?" + q.Encode())
		},
	}
	listCmd.Flags().String("owning-application", "", "Filter by owning application")
	subCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Fetch a subscription by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(apiURL() + "/subscriptions/" + url.PathEscape(args[0]))
		},
	}
	subCmd.AddCommand(getCmd)

	return subCmd
}

// newBlacklistCmd manages C4's CEL rule store directly against the data
// directory's Pebble database. It is deliberately not an HTTP client:
// spec.md treats C4 as a read-only port with no administrative surface,
// so the admin path is CLI-only and never touches the streaming loop's
// read path (see SPEC_FULL.md's "Blacklist administration" supplement).
func newBlacklistCmd() *cobra.Command {
	blCmd := &cobra.Command{Use: "blacklist", Short: "Blacklist rule administration"}

	var dataDir string
	blCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (defaults to the OS-specific application data directory)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List blacklist rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openBlacklistDB(dataDir)
			if err != nil {
				return err
			}
			defer closeFn()
			rules, err := blacklist.NewPebbleRuleStore(db).LoadAll()
			if err != nil {
				return err
			}
			for _, r := range rules {
				fmt.Printf("%s\t%s\n", r.ID, r.Expression)
			}
			return nil
		},
	}
	blCmd.AddCommand(listCmd)

	putCmd := &cobra.Command{
		Use:   "put [id] [expression]",
		Short: "Create or replace a blacklist rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openBlacklistDB(dataDir)
			if err != nil {
				return err
			}
			defer closeFn()
			return blacklist.NewPebbleRuleStore(db).Put(blacklist.Rule{ID: args[0], Expression: args[1]})
		},
	}
	blCmd.AddCommand(putCmd)

	removeCmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a blacklist rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openBlacklistDB(dataDir)
			if err != nil {
				return err
			}
			defer closeFn()
			return blacklist.NewPebbleRuleStore(db).Remove(args[0])
		},
	}
	blCmd.AddCommand(removeCmd)

	return blCmd
}

func openBlacklistDB(dataDir string) (*pebblestore.DB, func(), error) {
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(dataDir, "store")
	db, err := pebblestore.Open(pebblestore.Options{DataDir: storeDir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

func getAndPrint(rawURL string) error {
	resp, err := http.Get(rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf.Bytes(), "", "  "); err == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(buf.String())
	}
	fmt.Fprintln(os.Stderr, "status:", resp.Status)
	return nil
}

func apiURL() string {
	if v := os.Getenv("STREAMHUB_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
