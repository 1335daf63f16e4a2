package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yemun/blog/internal/commentservice"
	"github.com/yemun/blog/internal/common"
	"github.com/yemun/blog/internal/commentsync"
)

func main() {
	globalFlags := flag.NewFlagSet("global", flag.ExitOnError)
	apiURL := globalFlags.String("api", envOr("COMMENTS_API", "http://localhost:4000"), "Base URL of the blog API")
	timeout := globalFlags.Duration("timeout", commentsync.DefaultHTTPTimeout, "Request timeout")
	verbose := globalFlags.Bool("v", false, "Log controller activity to stderr")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// global flags come before the command
	commandIdx := len(os.Args)
	for i := 1; i < len(os.Args); i++ {
		if !strings.HasPrefix(os.Args[i], "-") {
			commandIdx = i
			break
		}
	}
	globalFlags.Parse(os.Args[1:commandIdx])

	if commandIdx >= len(os.Args) {
		printUsage()
		os.Exit(1)
	}

	var logOut io.Writer = io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	ctrl := commentsync.NewController(commentsync.NewHTTPStore(*apiURL, *timeout), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2 * *timeout)
	defer cancel()

	command, args := os.Args[commandIdx], os.Args[commandIdx+1:]

	var err error
	switch command {
	case "list":
		err = runList(ctx, ctrl, args)
	case "add":
		err = runAdd(ctx, ctrl, args)
	case "edit":
		err = runEdit(ctx, ctrl, args)
	case "delete":
		err = runDelete(ctx, ctrl, args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("comments - read and write blog post comments")
	fmt.Println()
	fmt.Println("Usage: comments [--api=<url>] [--timeout=<d>] [-v] <command> [flags] <slug> [id]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list <slug>                                        Show the comments of a post")
	fmt.Println("  add --name=<n> --email=<e> --content=<c> <slug>    Add a comment")
	fmt.Println("  edit --email=<e> --content=<c> <slug> <id>         Edit your comment")
	fmt.Println("  delete --email=<e> <slug> <id>                     Delete your comment")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func describe(err error) string {
	var validationErr common.ValidationError
	if errors.As(err, &validationErr) {
		fields := make([]string, 0, len(validationErr.Errors))
		for field, msg := range validationErr.Errors {
			fields = append(fields, field+" "+msg)
		}
		return strings.Join(fields, "; ")
	}

	switch {
	case errors.Is(err, commentservice.ErrEmailMismatch):
		return "the email does not match the comment author"
	case errors.Is(err, commentsync.ErrCommentNotFound), errors.Is(err, commentservice.ErrRecordNotFound):
		return "no such comment on this post"
	}

	return err.Error()
}

func mount(ctx context.Context, ctrl *commentsync.Controller, slug string) error {
	if err := ctrl.Mount(ctx, slug, nil); err != nil {
		return fmt.Errorf("load comments of %s: %w", slug, err)
	}
	return nil
}

func printComments(ctrl *commentsync.Controller) {
	comments := ctrl.Comments()
	fmt.Printf("%d comment(s) on %s\n", len(comments), ctrl.Slug())

	for _, c := range comments {
		fmt.Printf("\n[%s] %s at %s\n", c.ID, c.AuthorName, c.CreatedAt.Local().Format(time.DateTime))
		fmt.Println(c.Content)
	}
}

func runList(ctx context.Context, ctrl *commentsync.Controller, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: comments list <slug>")
	}

	if err := mount(ctx, ctrl, fs.Arg(0)); err != nil {
		return err
	}

	printComments(ctrl)
	return nil
}

func runAdd(ctx context.Context, ctrl *commentsync.Controller, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "Author name")
	email := fs.String("email", "", "Author email, needed later to edit or delete")
	content := fs.String("content", "", "Comment text")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: comments add --name=<n> --email=<e> --content=<c> <slug>")
	}

	if err := mount(ctx, ctrl, fs.Arg(0)); err != nil {
		return err
	}

	sub, err := ctrl.Submit(ctx, commentsync.Draft{AuthorName: *name, AuthorEmail: *email, Content: *content})
	if err != nil {
		return fmt.Errorf("%s: %w", sub.Status, err)
	}

	fmt.Printf("Comment %s %s\n\n", sub.Comment.ID, sub.Status)
	printComments(ctrl)
	return nil
}

func runEdit(ctx context.Context, ctrl *commentsync.Controller, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	email := fs.String("email", "", "Email the comment was written with")
	content := fs.String("content", "", "New comment text")
	name := fs.String("name", "", "New author name")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return errors.New("usage: comments edit --email=<e> --content=<c> <slug> <id>")
	}

	var req commentservice.UpdateCommentRequest
	if *content != "" {
		req.Content = content
	}
	if *name != "" {
		req.AuthorName = name
	}

	if err := mount(ctx, ctrl, fs.Arg(0)); err != nil {
		return err
	}

	if err := ctrl.Edit(ctx, fs.Arg(1), *email, req); err != nil {
		return err
	}

	printComments(ctrl)
	return nil
}

func runDelete(ctx context.Context, ctrl *commentsync.Controller, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	email := fs.String("email", "", "Email the comment was written with")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return errors.New("usage: comments delete --email=<e> <slug> <id>")
	}

	if err := mount(ctx, ctrl, fs.Arg(0)); err != nil {
		return err
	}

	if err := ctrl.Delete(ctx, fs.Arg(1), *email); err != nil {
		return err
	}

	printComments(ctrl)
	return nil
}
