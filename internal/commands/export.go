package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/query"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd implements the export command.
type ExportCmd struct {
	format string
	path   string
	filter string
	search string
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Write tasks as JSON, CSV, YAML, or PDF" }
func (c *ExportCmd) Usage() string {
	return "taskboard export [--format json|csv|yaml|pdf] [--output <file>] [--filter f] [--search s]"
}
func (c *ExportCmd) NeedsStore() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", output.FormatJSON, "")
	fs.StringVar(&c.path, "output", "", "")
	fs.StringVar(&c.path, "o", "", "")
	fs.StringVar(&c.filter, "filter", "all", "")
	fs.StringVar(&c.search, "search", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	filter, err := task.ParseFilter(c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if c.format == output.FormatPDF && c.path == "" {
		fmt.Fprintln(errOut, "error: --output is required for pdf")
		return exitcode.UserError
	}

	loadAll(ctx, st)
	warnStoreError(errOut, st)

	tasks := query.FilterAndSearch(st.Tasks(), filter, c.search)
	data, err := output.Export(tasks, c.format, st.Today())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if c.path == "" {
		out.Write(data)
		return exitcode.Success
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		fmt.Fprintf(errOut, "error: failed to write %s: %v\n", c.path, err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "wrote %d tasks to %s\n", len(tasks), c.path)
	}
	return exitcode.Success
}
