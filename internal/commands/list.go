package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/query"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command. It is also the default command.
type ListCmd struct {
	filter   string
	search   string
	priority string
	format   string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskboard list [--filter all|active|completed] [--search <text>] [--priority <p>] [--format text|json|yaml]"
}
func (c *ListCmd) NeedsStore() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "all", "")
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.format, "format", output.FormatText, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	filter, err := task.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	var priority task.Priority
	if c.priority != "" {
		if priority, err = task.ParsePriority(c.priority); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}
	switch c.format {
	case output.FormatText, output.FormatJSON, output.FormatYAML:
	default:
		fmt.Fprintf(errOut, "error: unknown format: %s\n", c.format)
		return exitcode.UserError
	}

	loadAll(ctx, st)
	defer warnStoreError(errOut, st)

	all := st.Tasks()
	visible := query.ByPriority(query.FilterAndSearch(all, filter, c.search), priority)

	if c.format != output.FormatText {
		if err := output.Encode(out, c.format, visible); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		return exitcode.Success
	}

	// Numbers are positions in the full list so they stay valid as refs.
	keep := make(map[task.ID]bool, len(visible))
	for _, t := range visible {
		keep[t.ID] = true
	}
	today := st.Today()
	for i, t := range all {
		if keep[t.ID] {
			output.FormatTask(out, i+1, t, today)
		}
	}
	if len(visible) == 0 && !cfg.Quiet {
		fmt.Fprintln(errOut, "no tasks")
	}
	return exitcode.Success
}
