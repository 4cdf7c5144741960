package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/store"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskboard help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskboard                                          List all tasks
  taskboard list [common flags] [--filter all|active|completed] [--search <text>]
                 [--priority <p>] [--format text|json|yaml]
  taskboard add [common flags] [--priority <p>] [--due YYYY-MM-DD] <text...>
  taskboard done [common flags] <ref>
  taskboard toggle [common flags] <ref>
  taskboard edit [common flags] [--priority <p>] [--due YYYY-MM-DD | --no-due] <ref> [text...]
  taskboard rm [common flags] <ref>
  taskboard stats [common flags] [--remote] [--format text|json|yaml]
  taskboard export [common flags] [--format json|csv|yaml|pdf] [--output <file>]
  taskboard tui [common flags]
  taskboard serve [common flags] [--addr <host:port>] [--driver sqlite3|mysql] [--dsn <dsn>]
  taskboard login [common flags]
  taskboard logout [common flags]
  taskboard help
  taskboard version [--verbose]

Task references:
  <n>              Position in the full list, as printed by list
  #<id>            Task id, e.g. #12 or #local-0192...

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
  --offline        Skip the task service and use the local cache
`
