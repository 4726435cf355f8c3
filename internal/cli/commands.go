package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/networkqy/internal/feedclient"
	"github.com/d60-Lab/networkqy/internal/optimistic"
)

type appFn func() *app

func newLoginCmd(get appFn) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as --email and print the session to export",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			email := a.cfg.Client.Email
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if err := a.client.Login(cmd.Context(), email, password); err != nil {
				return describe(err)
			}
			gotEmail, token := a.client.Session()
			green.Fprintf(a.out, "Logged in as %s\n", email)
			if token != "" {
				fmt.Fprintf(a.out, "export NETWORKQY_CLIENT_TOKEN=%s\n", token)
			} else {
				fmt.Fprintf(a.out, "export NETWORKQY_CLIENT_EMAIL=%s\n", gotEmail)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newFeedCmd(get appFn) *cobra.Command {
	var (
		topic          string
		page, pageSize int
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			posts, err := a.client.ListPosts(cmd.Context(), topic, page, pageSize)
			if err != nil {
				return describe(err)
			}
			if len(posts) == 0 {
				faint.Fprintln(a.out, "No posts yet.")
				return nil
			}
			for _, p := range posts {
				renderPost(a.out, p, false)
				fmt.Fprintln(a.out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "company_culture, workplace_issues, career_advice or general")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "posts per page")
	return cmd
}

func newShowCmd(get appFn) *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			store, err := a.loadPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPost(a, store, args[0], false)
			return nil
		},
	}
}

func newPostCmd(get appFn) *cobra.Command {
	var in feedclient.NewPost
	cmd := &cobra.Command{
		Use:   "post <content...>",
		Short: "Publish a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			in.Content = strings.Join(args, " ")
			p, err := a.client.CreatePost(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}
			renderPost(a.out, *p, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Topic, "topic", "", "post topic")
	cmd.Flags().BoolVarP(&in.IsAnonymous, "anonymous", "a", false, "hide your name")
	cmd.Flags().StringVar(&in.Company, "company", "", "company tag")
	cmd.Flags().StringVar(&in.Industry, "industry", "", "industry tag")
	return cmd
}

func newLikeCmd(get appFn) *cobra.Command {
	var commentID string
	cmd := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle a like on a post, or on one of its comments with --comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			postID := args[0]
			store, err := a.loadPost(ctx, postID)
			if err != nil {
				return err
			}
			sess := a.session(store)

			var p *optimistic.Pending
			if commentID != "" {
				p, err = sess.ToggleCommentLike(ctx, commentID)
			} else {
				p, err = sess.TogglePostLike(ctx, postID)
			}
			if err != nil {
				return err
			}
			return settle(ctx, a, sess, p, postID)
		},
	}
	cmd.Flags().StringVar(&commentID, "comment", "", "comment id on the post")
	return cmd
}

func newCommentCmd(get appFn) *cobra.Command {
	var anonymous bool
	cmd := &cobra.Command{
		Use:   "comment <post-id> <text...>",
		Short: "Add a comment to a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			postID := args[0]
			store, err := a.loadPost(ctx, postID)
			if err != nil {
				return err
			}
			sess := a.session(store)
			p, err := sess.AddComment(ctx, postID, strings.Join(args[1:], " "), anonymous)
			if err != nil {
				if optimistic.IsValidation(err) {
					return errNotSaved
				}
				return err
			}
			return settle(ctx, a, sess, p, postID)
		},
	}
	cmd.Flags().BoolVarP(&anonymous, "anonymous", "a", false, "comment anonymously")
	return cmd
}

// settle prints the optimistic view, waits for the server and prints the
// reconciled view.
func settle(ctx context.Context, a *app, sess *optimistic.Session, p *optimistic.Pending, postID string) error {
	snap := sess.Snapshot()
	printSnapshot(a, snap, postID, true)

	state, err := p.Wait(ctx)
	if err != nil {
		return err
	}
	sess.Wait()
	printSnapshot(a, sess.Snapshot(), postID, false)
	if state == optimistic.StateRolledBack {
		return errNotSaved
	}
	return nil
}

func printSnapshot(a *app, snap optimistic.Snapshot, postID string, pending bool) {
	for _, post := range snap.Posts {
		if post.ID != postID {
			continue
		}
		renderPost(a.out, post, pending)
		for _, c := range snap.Comments[postID] {
			renderComment(a.out, c, false)
		}
	}
}

func printPost(a *app, store *optimistic.Store, postID string, pending bool) {
	post, ok := store.Post(postID)
	if !ok {
		return
	}
	renderPost(a.out, post, pending)
	for _, c := range store.Comments(postID) {
		renderComment(a.out, c, false)
	}
}
