// Command blogctl writes, searches and deletes posts kept in a local cache,
// or on a blog server when -remote is given.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"blogger/client"
	"blogger/domain"
	"blogger/postcache"
	"blogger/storage/file"

	"go.uber.org/zap"
)

const usage = `usage: blogctl [-dir DIR] [-remote URL] [-v] <command> [flags]

commands:
  list   [-q QUERY] [-tab recent|featured]
  create -title TITLE -content CONTENT
  delete [-y] ID
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type app struct {
	book   postBook
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("blogctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { fmt.Fprint(errOut, usage) }
	dir := fs.String("dir", defaultCacheDir(), "directory holding the local post cache")
	remote := fs.String("remote", "", "blog server base URL; bypasses the local cache")
	verbose := fs.Bool("v", false, "log diagnostics to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	log := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer log.Sync()

	a := &app{in: bufio.NewReader(in), out: out, errOut: errOut, log: log}
	if *remote != "" {
		a.book = remoteBook{client: client.New(*remote, nil)}
	} else {
		kv, err := file.New(*dir)
		if err != nil {
			fmt.Fprintf(errOut, "open cache: %v\n", err)
			return 1
		}
		defer kv.Close()
		a.book = localBook{cache: postcache.Open(ctx, kv, postcache.WithLogger(log.Named("postcache")))}
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var err error
	switch cmd {
	case "list":
		err = a.list(ctx, rest)
	case "create":
		err = a.create(ctx, rest)
	case "delete":
		err = a.delete(ctx, rest)
	default:
		fmt.Fprintf(errOut, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blogctl"
	}
	return filepath.Join(home, ".blogctl")
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	query := fs.String("q", "", "only posts whose title or content contains this text")
	tabName := fs.String("tab", string(postcache.TabRecent), "recent or featured")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tab, err := postcache.ParseTab(*tabName)
	if err != nil {
		return err
	}

	posts, err := a.book.View(ctx, *query, tab)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTITLE\tCONTENT")
	for _, p := range posts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.CreatedAt.Format(time.DateOnly), p.Title, excerpt(p.Content, 60))
	}
	return tw.Flush()
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post content")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.book.Create(ctx, domain.Draft{Title: *title, Content: *content}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Post saved")
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	yes := fs.Bool("y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one post id")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid post id %q", fs.Arg(0))
	}

	confirm := a.confirm
	if *yes {
		confirm = nil
	}
	deleted, err := a.book.Delete(ctx, id, confirm)
	if err != nil {
		a.log.Error("error deleting post", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if deleted {
		fmt.Fprintln(a.out, "Post deleted")
	} else {
		fmt.Fprintln(a.out, "Cancelled")
	}
	return nil
}

func (a *app) confirm(p domain.Post) bool {
	fmt.Fprintf(a.out, "Are you sure you want to delete this post? %q [y/N] ", p.Title)
	answer, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
