package console

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/mmconsole/pkg/output"
	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// ConnectTimeout bounds opening a session.
const ConnectTimeout = 30 * time.Second

// Log subcommands offered for completion.
var logSubcommands = []string{"all", "clear", "raw", "save"}

type command struct {
	name     string
	usage    string
	help     string
	run      func(c *Console, ctx context.Context, arg string) bool
	complete []string
}

var commands []command

func init() {
	kinds := make([]string, 0, len(transport.Kinds))
	for _, k := range transport.Kinds {
		kinds = append(kinds, string(k))
	}

	commands = []command{
		{name: "battery", help: "Get battery voltage.", run: (*Console).doBattery},
		{name: "clear", help: "Clear screen.", run: (*Console).doClear},
		{name: "connect", usage: "connect <" + strings.Join(kinds, "|") + ">", help: "Connect to the robot.", run: (*Console).doConnect, complete: kinds},
		{name: "exit", help: "Exit shell.", run: (*Console).doExit},
		{name: "help", help: "List commands.", run: (*Console).doHelp},
		{name: "log", usage: "log [all|raw|clear|save [file]|N]", help: "Show the log, the last entries by default.", run: (*Console).doLog, complete: logSubcommands},
		{name: "status", help: "Show the connection state.", run: (*Console).doStatus},
	}
}

func lookup(name string) (command, bool) {
	if name == "EOF" {
		return command{name: "EOF", run: (*Console).doExit}, true
	}
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func (c *Console) connected() bool {
	if c.session != nil {
		return true
	}
	c.printf("Not connected. Use %q first.\n", "connect")
	return false
}

func (c *Console) doConnect(ctx context.Context, arg string) bool {
	kind := transport.Kind(arg)
	if kind == "" {
		kind = transport.Kind(c.cfg.Transport.Type)
	}
	if !knownKind(kind) {
		c.printf("Unsupported connection %q\n", arg)
		return false
	}

	if c.session != nil {
		c.printf("Closing %s.\n", c.session.Source())
		if err := c.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("closing previous session")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	s, err := c.open(ctx, kind)
	if err != nil {
		var connErr *transport.ConnectionError
		if errors.As(err, &connErr) {
			c.printf("Connection failed: %v\n", connErr)
		} else {
			c.printf("Cannot connect: %v\n", err)
		}
		return false
	}
	c.session = s
	c.printf("Connected over %s.\n", s.Source())
	return false
}

func knownKind(kind transport.Kind) bool {
	for _, k := range transport.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (c *Console) doBattery(_ context.Context, _ string) bool {
	if !c.connected() {
		return false
	}
	c.session.BatteryVoltage()
	c.printf("Battery voltage requested; the reading will appear in the log.\n")
	return false
}

func (c *Console) doClear(_ context.Context, _ string) bool {
	c.printf("\x1b[H\x1b[2J")
	return false
}

func (c *Console) doLog(ctx context.Context, arg string) bool {
	if !c.connected() {
		return false
	}

	sub, rest := splitCommand(arg)
	switch {
	case sub == "all":
		c.printRecords(c.session.AllRecords())
	case sub == "raw":
		for _, line := range c.session.AllRawLines() {
			c.printf("%s\n", line)
		}
	case sub == "clear":
		c.session.ClearLog()
		c.printf("Log cleared.\n")
	case sub == "save":
		c.saveLog(ctx, rest)
	case isNumber(sub):
		n, err := strconv.Atoi(sub)
		if err != nil {
			c.printf("Invalid count %q\n", sub)
			return false
		}
		c.printRecords(c.session.Tail(n))
	default:
		c.printRecords(c.session.Tail(c.tailDefault()))
	}
	return false
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c *Console) tailDefault() int {
	if c.cfg.Log.TailDefault > 0 {
		return c.cfg.Log.TailDefault
	}
	return 10
}

func (c *Console) printRecords(records []parser.Record) {
	for _, rec := range records {
		c.printf("%s\n", output.FormatRecord(rec))
	}
}

func (c *Console) saveLog(ctx context.Context, path string) {
	if path == "" {
		path = c.cfg.Log.SavePath
	}

	f, err := os.Create(path)
	if err != nil {
		c.printf("Cannot save log: %v\n", err)
		return
	}

	formatter := output.NewJSONFormatter(output.FormatOptions{})
	err = formatter.Format(ctx, c.session.Report(), f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		c.printf("Cannot save log: %v\n", err)
		return
	}
	c.printf("Saved log as %q.\n", path)
}

func (c *Console) doStatus(_ context.Context, _ string) bool {
	if c.session == nil {
		c.printf("Not connected.\n")
		return false
	}
	s := c.session
	stats := s.Stats()
	c.printf("Session:   %s\n", s.ID())
	c.printf("Link:      %s\n", s.Source())
	c.printf("State:     %s\n", s.State())
	c.printf("Uptime:    %s\n", time.Since(s.StartedAt()).Round(time.Second))
	c.printf("Received:  %d bytes in %d chunks\n", stats.Bytes, stats.Chunks)
	c.printf("Lines:     %d (%d malformed)\n", stats.Lines, stats.Malformed)
	c.printf("Stored:    %d records\n", len(s.AllRecords()))
	return false
}

func (c *Console) doHelp(_ context.Context, arg string) bool {
	if arg != "" {
		cmd, ok := lookup(arg)
		if !ok || cmd.help == "" {
			c.printf("*** No help on %s\n", arg)
			return false
		}
		c.printf("%s\n  %s\n", usage(cmd), cmd.help)
		return false
	}

	width := 0
	for _, cmd := range commands {
		width = max(width, len(usage(cmd)))
	}
	c.printf("Commands:\n")
	for _, cmd := range commands {
		c.printf("  %-*s  %s\n", width, usage(cmd), cmd.help)
	}
	return false
}

func usage(cmd command) string {
	if cmd.usage != "" {
		return cmd.usage
	}
	return cmd.name
}

func (c *Console) doExit(_ context.Context, _ string) bool {
	return true
}
