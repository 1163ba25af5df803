package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"videohub/internal/client"
	"videohub/internal/kv"
	"videohub/internal/logging"
	"videohub/internal/registry"
	"videohub/internal/view"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errUsage marks bad command-line input; the message has been printed.
var errUsage = errors.New("usage")

type app struct {
	stdout io.Writer
	stderr io.Writer

	store       kv.Store
	feedHTTP    *http.Client
	uploadHTTP  *http.Client
	concurrency int
	log         *logging.Logger
	now         func() time.Time
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 || isHelp(args[0]) {
		a.usage(a.stdout)
		return exitOK
	}

	var err error
	switch args[0] {
	case "servers":
		err = a.serversCmd(ctx, args[1:])
	case "upload":
		err = a.uploadCmd(ctx, args[1:])
	case "feed":
		err = a.feedCmd(ctx, args[1:])
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", args[0])
		a.usage(a.stderr)
		return exitUsage
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		return exitFail
	}
}

func (a *app) serversCmd(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	if isHelp(sub) {
		fmt.Fprint(a.stdout, serversUsage)
		return nil
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}

	var notice view.Notice
	switch sub {
	case "list", "ls":
		if len(args) != 0 {
			return a.usageErr(serversUsage, "servers list takes no arguments")
		}
	case "add":
		if len(args) != 1 {
			return a.usageErr(serversUsage, "servers add needs exactly one address")
		}
		addr := strings.TrimSpace(args[0])
		if err := reg.Add(ctx, addr); err != nil {
			return a.fail(err)
		}
		notice = view.Success("Server added: "+addr, a.clock())
	case "remove", "rm":
		if len(args) != 1 {
			return a.usageErr(serversUsage, "servers remove needs exactly one address")
		}
		addr := strings.TrimSpace(args[0])
		removed, err := reg.Remove(ctx, addr)
		if err != nil {
			return a.fail(err)
		}
		if removed {
			notice = view.Success("Server removed: "+addr, a.clock())
		} else {
			notice = view.Info("Server not in the list: "+addr, a.clock())
		}
	default:
		return a.usageErr(serversUsage, fmt.Sprintf("unknown servers command %q", sub))
	}

	page := view.Build(reg, client.FeedResult{}, notice, a.clock())
	return view.WriteServers(a.stdout, page)
}

func (a *app) uploadCmd(ctx context.Context, args []string) error {
	fs := a.flagSet("upload", uploadUsage)
	title := fs.String("title", "", "video title")
	refresh := fs.Bool("feed", false, "show the feed after uploading")
	rest, err := parseInterspersed(fs, args)
	if err != nil {
		return errUsageOr(err)
	}
	if len(rest) != 1 {
		return a.usageErr(uploadUsage, "upload needs exactly one file")
	}
	if strings.TrimSpace(*title) == "" {
		return a.usageErr(uploadUsage, "--title is required")
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}

	path := rest[0]
	f, err := os.Open(path)
	if err != nil {
		return a.fail(err)
	}
	defer f.Close()

	up := &client.Uploader{Endpoints: reg, Client: a.uploadHTTP, Logger: a.log}
	ack, err := up.Upload(ctx, client.File{Name: path, Content: f}, *title)
	if err != nil {
		return a.fail(err)
	}

	active, _ := reg.Active()
	item := client.FeedItem{Record: ack.Video, Server: active}
	fmt.Fprintf(a.stdout, "[%s] %s\n", view.NoticeSuccess, ack.Message)
	fmt.Fprintf(a.stdout, "  %s  %s\n", item.Title, item.URL())

	if *refresh {
		fmt.Fprintln(a.stdout)
		return a.showFeed(ctx, reg, "text", nil, view.Notice{})
	}
	return nil
}

func (a *app) feedCmd(ctx context.Context, args []string) error {
	fs := a.flagSet("feed", feedUsage)
	format := fs.String("format", "text", "output format: "+strings.Join(view.Formats, ", "))
	watch := fs.Duration("watch", 0, "reload the feed at this interval until interrupted")
	rest, err := parseInterspersed(fs, args)
	if err != nil {
		return errUsageOr(err)
	}
	if len(rest) != 0 {
		return a.usageErr(feedUsage, "feed takes no arguments")
	}
	if !slices.Contains(view.Formats, *format) {
		return a.usageErr(feedUsage, fmt.Sprintf("unknown format %q", *format))
	}
	if *watch < 0 {
		return a.usageErr(feedUsage, "--watch must be positive")
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}

	if *watch == 0 {
		return a.showFeed(ctx, reg, *format, nil, view.Notice{})
	}

	// A failing endpoint is skipped for a few rounds instead of being
	// retried on every tick.
	breakers := client.NewBreakers(3, 5*(*watch), a.log)
	ticker := time.NewTicker(*watch)
	defer ticker.Stop()
	for {
		if err := a.showFeed(ctx, reg, *format, breakers, view.Notice{}); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *app) showFeed(ctx context.Context, reg *registry.Registry, format string, breakers *client.Breakers, notice view.Notice) error {
	agg := &client.Aggregator{
		Endpoints:   reg,
		Client:      a.feedHTTP,
		Concurrency: a.concurrency,
		Breakers:    breakers,
		Logger:      a.log,
	}
	feed := agg.Load(ctx)
	if err := feed.Err(); err != nil {
		a.log.Warn("feed_incomplete", map[string]any{"error": err.Error()})
	}
	page := view.Build(reg, feed, notice, a.clock())
	if err := view.Render(a.stdout, format, page); err != nil {
		return a.fail(err)
	}
	return nil
}

func (a *app) registry(ctx context.Context) (*registry.Registry, error) {
	reg, err := registry.Load(ctx, a.store)
	if err != nil {
		return nil, a.fail(err)
	}
	return reg, nil
}

// fail prints err as a notice on stderr and returns it.
func (a *app) fail(err error) error {
	n := view.Failure(err, a.clock())
	fmt.Fprintf(a.stderr, "[%s] %s\n", n.Kind, n.Text)
	a.log.Debug("command_failed", map[string]any{"error": err.Error()})
	return err
}

func (a *app) usageErr(usage, msg string) error {
	fmt.Fprintf(a.stderr, "error: %s\n\n%s", msg, usage)
	return errUsage
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *app) flagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { fmt.Fprint(a.stderr, usage) }
	return fs
}

// parseInterspersed parses flags that may appear before or after
// positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		// Parse stops after a "--" terminator; everything left is positional.
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func errUsageOr(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return errUsage
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func (a *app) usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  videohub servers [list|add <address>|remove <address>]
  videohub upload --title <title> [--feed] <file>
  videohub feed [--format text|json|html|m3u8] [--watch <interval>]

Commands:
  servers  manage the endpoints videos are uploaded to and listed from
  upload   send a video to the active endpoint
  feed     show the videos of every endpoint

Environment:
  VH_CLIENT_DIR        state directory (default ~/.videohub)
  VH_HTTP_TIMEOUT      feed request timeout (default 30s)
  VH_FEED_CONCURRENCY  endpoints queried at once (default 4)
`)
}

const serversUsage = `Usage:
  videohub servers [list]
  videohub servers add <address>
  videohub servers remove <address>

The first server added becomes active; uploads go to the active server.
`

const uploadUsage = `Usage:
  videohub upload --title <title> [--feed] <file>

Flags:
  --title  video title (required)
  --feed   show the feed after a successful upload
`

const feedUsage = `Usage:
  videohub feed [--format text|json|html|m3u8] [--watch <interval>]

Flags:
  --format  output format (default text)
  --watch   reload at this interval, e.g. 30s, until interrupted
`
