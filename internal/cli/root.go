// Package cli implements feedctl, a terminal client that applies feed
// mutations optimistically and reconciles them against the server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/networkqy/config"
	"github.com/d60-Lab/networkqy/internal/feedclient"
	"github.com/d60-Lab/networkqy/internal/optimistic"
	"github.com/d60-Lab/networkqy/pkg/logger"
)

// errNotSaved is returned after a mutation was rolled back; the toast has
// already told the user why.
var errNotSaved = errors.New("change was not saved")

type globalFlags struct {
	configDir string
	baseURL   string
	email     string
	token     string
	timeout   time.Duration
	verbose   bool
	noColor   bool
}

type app struct {
	cfg    *config.Config
	client *feedclient.Client
	out    io.Writer
	errOut io.Writer
}

func (f *globalFlags) setup(cmd *cobra.Command) (*app, error) {
	if f.noColor {
		color.NoColor = true
	}
	var paths []string
	if f.configDir != "" {
		paths = append(paths, f.configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}
	if f.baseURL != "" {
		cfg.Client.BaseURL = f.baseURL
	}
	if f.email != "" {
		cfg.Client.Email = f.email
	}
	if f.token != "" {
		cfg.Client.Token = f.token
	}
	if f.timeout > 0 {
		cfg.Client.Timeout = f.timeout
	}
	if f.verbose {
		if err := logger.Init("debug", cfg.Log.File); err != nil {
			return nil, err
		}
	}

	client := feedclient.New(feedclient.Options{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.Timeout,
		Email:   cfg.Client.Email,
		Token:   cfg.Client.Token,
		Logger:  logger.L(),
	})
	return &app{cfg: cfg, client: client, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, nil
}

// session wires an optimistic session over store with terminal toasts.
func (a *app) session(store *optimistic.Store) *optimistic.Session {
	notifier := optimistic.Tee(&terminalNotifier{w: a.errOut}, optimistic.LogNotifier{Log: logger.L()})
	return optimistic.NewSession(store, a.client,
		optimistic.WithFetcher(a.client),
		optimistic.WithNotifier(notifier),
		optimistic.WithLogger(logger.L()),
		optimistic.WithTimeout(a.cfg.Client.Timeout),
	)
}

// loadPost builds a store holding one post and its comments.
func (a *app) loadPost(ctx context.Context, postID string) (*optimistic.Store, error) {
	post, err := a.client.GetPost(ctx, postID)
	if err != nil {
		return nil, describe(err)
	}
	comments, err := a.client.ListComments(ctx, postID, 1, 100)
	if err != nil {
		return nil, describe(err)
	}
	store := optimistic.NewStore()
	store.Reset([]optimistic.Post{*post}, comments)
	return store, nil
}

// describe turns API errors into the server's own reason.
func describe(err error) error {
	var apiErr *feedclient.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var a *app

	root := &cobra.Command{
		Use:           "feedctl",
		Short:         "Browse and react to the networkqy feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = flags.setup(cmd)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "directory containing config.yaml")
	pf.StringVar(&flags.baseURL, "base-url", "", "feed API base URL")
	pf.StringVar(&flags.email, "email", "", "identity sent as the userEmail cookie")
	pf.StringVar(&flags.token, "token", "", "signed session token")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get),
		newFeedCmd(get),
		newShowCmd(get),
		newPostCmd(get),
		newLikeCmd(get),
		newCommentCmd(get),
	)
	return root
}

func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errNotSaved) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Debug("feedctl failed", zap.Error(err))
		os.Exit(1)
	}
}
