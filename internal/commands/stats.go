package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/store"
)

func init() {
	Register(&StatsCmd{})
}

// StatsCmd implements the stats command.
// Counts come from the loaded list unless --remote asks the service.
type StatsCmd struct {
	remote bool
	format string
}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show task counts" }
func (c *StatsCmd) Usage() string     { return "taskboard stats [--remote] [--format text|json|yaml]" }
func (c *StatsCmd) NeedsStore() bool  { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.remote, "remote", false, "")
	fs.StringVar(&c.format, "format", output.FormatText, "")
}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	switch c.format {
	case output.FormatText, output.FormatJSON, output.FormatYAML:
	default:
		fmt.Fprintf(errOut, "error: unknown format: %s\n", c.format)
		return exitcode.UserError
	}

	loadAll(ctx, st)
	warnStoreError(errOut, st)

	stats := st.Stats()
	if c.remote {
		var ok bool
		if stats, ok = st.RemoteStats(ctx); !ok {
			fmt.Fprintln(errOut, "warning: remote stats unavailable, counted locally")
		}
	}

	if c.format == output.FormatText {
		output.FormatStats(out, stats)
		return exitcode.Success
	}
	if err := output.Encode(out, c.format, stats); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
