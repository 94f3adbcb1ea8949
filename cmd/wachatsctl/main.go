package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/matheus3301/wachats/internal/logging"
	"github.com/matheus3301/wachats/internal/profile"
	"github.com/matheus3301/wachats/internal/tui/client"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "backend URL (overrides the profile)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "profiles" {
		if len(args) >= 2 && args[1] == "list" {
			if err := cmdProfilesList(profileName, *jsonFlag); err != nil {
				fatal(err)
			}
			return
		}
		fmt.Fprintln(os.Stderr, "usage: wachatsctl profiles list")
		os.Exit(1)
	}

	settings, err := profile.Settings(profileName, *serverFlag)
	if err != nil {
		fatal(err)
	}
	logger, err := logging.New(profile.LogPath(profileName), profileName, logging.Options{
		Console:      os.Stderr,
		ConsoleLevel: zapcore.WarnLevel,
	})
	if err != nil {
		fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.New(client.Options{
		BaseURL: settings.ServerURL,
		Token:   settings.Token,
		Timeout: settings.RequestTimeout.Duration,
		Logger:  logger.Named("http"),
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch args[0] {
	case "conversations":
		err = cmdConversations(ctx, c, args[1:], *jsonFlag)
	case "messages":
		err = cmdMessages(ctx, c, args[1:], *jsonFlag)
	case "send":
		err = cmdSend(ctx, c, args[1:], *jsonFlag)
	case "media":
		err = cmdMedia(ctx, c, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Warn("command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wachatsctl [--profile <name>] [--server <url>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  conversations [--after ts] [--before ts]     List conversations")
	fmt.Fprintln(os.Stderr, "  messages <conv> [--after id] [--before id]   List messages, oldest first")
	fmt.Fprintln(os.Stderr, "  send <conv> <text>                           Send a text message")
	fmt.Fprintln(os.Stderr, "  media <phone> <media> [-o file]              Download a media object")
	fmt.Fprintln(os.Stderr, "  profiles list                                List known profiles")
}

// parseArgs parses fs from args, accepting flags before, between and after
// positional arguments, and returns the positionals in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		// Parse consumed "--": everything after it is positional.
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func cmdConversations(ctx context.Context, c *client.Client, args []string, jsonOut bool) error {
	fs := flag.NewFlagSet("conversations", flag.ContinueOnError)
	after := fs.String("after", "", "only conversations active after this RFC3339 time")
	before := fs.String("before", "", "only conversations active before this RFC3339 time")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	var q client.ConversationQuery
	var err error
	if q.AfterAt, err = parseTime(*after); err != nil {
		return err
	}
	if q.BeforeAt, err = parseTime(*before); err != nil {
		return err
	}

	convs, err := c.ListConversations(ctx, q)
	if err != nil {
		return err
	}
	if jsonOut {
		return outputJSON(convs)
	}
	if len(convs) == 0 {
		fmt.Fprintln(stdout, "No conversations found.")
		return nil
	}
	cyan := color.New(color.FgCyan)
	for _, conv := range convs {
		fmt.Fprintf(stdout, "%-24s %s %-16s %s\n",
			conv.ID,
			cyan.Sprintf("%-28s", oneLine(conv.DisplayName())),
			conv.Phone,
			conv.LastChatAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func cmdMessages(ctx context.Context, c *client.Client, args []string, jsonOut bool) error {
	fs := flag.NewFlagSet("messages", flag.ContinueOnError)
	after := fs.String("after", "", "only messages after this id")
	before := fs.String("before", "", "only messages before this id")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return fmt.Errorf("usage: wachatsctl messages <conv> [--after id] [--before id]")
	}

	msgs, err := c.ListMessages(ctx, pos[0], client.MessageQuery{AfterID: *after, BeforeID: *before})
	if err != nil {
		return err
	}
	if jsonOut {
		return outputJSON(msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(stdout, "No messages found.")
		return nil
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		fmt.Fprintf(stdout, "%s  %s  %s\n",
			m.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			statusColumn(m.Status),
			oneLine(m.Content.Preview()))
	}
	return nil
}

func cmdSend(ctx context.Context, c *client.Client, args []string, jsonOut bool) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: wachatsctl send <conv> <text>")
	}
	text := strings.Join(args[1:], " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is empty")
	}

	m, err := c.SendMessage(ctx, args[0], text)
	if err != nil {
		return err
	}
	if jsonOut {
		return outputJSON(m)
	}
	fmt.Fprintf(stdout, "Sent %s %s\n", m.ID, statusColumn(m.Status))
	return nil
}

func cmdMedia(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("media", flag.ContinueOnError)
	out := fs.String("o", "", "write to file instead of stdout")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return fmt.Errorf("usage: wachatsctl media <phone> <media> [-o file]")
	}

	rc, ctype, err := c.FetchMedia(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	w := stdout
	if *out != "" {
		f, err := os.OpenFile(*out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	n, err := io.Copy(w, rc)
	if err != nil {
		return fmt.Errorf("write media: %w", err)
	}
	if *out != "" {
		fmt.Fprintf(os.Stderr, "wrote %d bytes (%s) to %s\n", n, ctype, *out)
	}
	return nil
}

type profileEntry struct {
	Name    string `json:"name"`
	Server  string `json:"server"`
	Default bool   `json:"default"`
}

func cmdProfilesList(current string, jsonOut bool) error {
	names, err := profile.List()
	if err != nil {
		return err
	}
	entries := make([]profileEntry, 0, len(names))
	for _, name := range names {
		settings, err := profile.Settings(name, "")
		if err != nil {
			return err
		}
		entries = append(entries, profileEntry{
			Name:    name,
			Server:  settings.ServerURL,
			Default: name == current,
		})
	}
	if jsonOut {
		return outputJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No profiles found.")
		return nil
	}
	green := color.New(color.FgGreen)
	for _, e := range entries {
		marker := " "
		if e.Default {
			marker = green.Sprint("*")
		}
		fmt.Fprintf(stdout, "%s %-20s %s\n", marker, e.Name, e.Server)
	}
	return nil
}

// statusColumn renders a message status, coloured like the TUI bubbles.
// Padding is applied before colouring so escape codes do not count
// toward the column width.
func statusColumn(status string) string {
	switch status {
	case "":
		return color.YellowString("%-8s", "received")
	case "read":
		return color.CyanString("%-8s", status)
	case "failed":
		return color.New(color.FgRed, color.Bold).Sprintf("%-8s", status)
	default:
		return color.GreenString("%-8s", status)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339", s)
	}
	return t, nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
