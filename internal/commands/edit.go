package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Fields not given keep their values.
type EditCmd struct {
	priority string
	due      string
	noDue    bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's text, priority, or due date" }
func (c *EditCmd) Usage() string {
	return "taskboard edit [--priority p] [--due YYYY-MM-DD | --no-due] <ref> [text...]"
}
func (c *EditCmd) NeedsStore() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.BoolVar(&c.noDue, "no-due", false, "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	if c.noDue && c.due != "" {
		fmt.Fprintln(errOut, "error: cannot use both --due and --no-due")
		return exitcode.UserError
	}
	priority, due, err := parseTaskFlags(c.priority, c.due)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	loadAll(ctx, st)
	warnStoreError(errOut, st)

	t, code := resolveRef(st, args, errOut)
	if code != exitcode.Success {
		return code
	}

	text := t.Text
	if len(args) > 1 {
		text = strings.Join(args[1:], " ")
		if strings.TrimSpace(text) == "" {
			fmt.Fprintln(errOut, "error: task text cannot be empty")
			return exitcode.UserError
		}
	}
	if priority == "" {
		priority = t.Priority
	}
	switch {
	case c.noDue:
		due = task.Date{}
	case c.due == "":
		due = t.DueDate
	}

	st.ClearError()
	st.Edit(ctx, t.ID, text, priority, due)
	warnStoreError(errOut, st)

	printOK(cfg, out)
	return exitcode.Success
}
