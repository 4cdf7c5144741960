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
	Register(&DoneCmd{})
	Register(&DoneCmd{toggle: true})
}

// DoneCmd implements the done and toggle commands.
// done only completes open tasks; toggle flips either way.
type DoneCmd struct {
	toggle bool
}

func (c *DoneCmd) Name() string {
	if c.toggle {
		return "toggle"
	}
	return "done"
}

func (c *DoneCmd) Aliases() []string { return nil }

func (c *DoneCmd) Synopsis() string {
	if c.toggle {
		return "Flip a task between open and completed"
	}
	return "Mark a task completed"
}

func (c *DoneCmd) Usage() string {
	return "taskboard " + c.Name() + " <ref>"
}

func (c *DoneCmd) NeedsStore() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	loadAll(ctx, st)
	warnStoreError(errOut, st)

	t, code := resolveRef(st, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if t.Completed && !c.toggle {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already completed")
		}
		return exitcode.Success
	}

	st.ClearError()
	st.Toggle(ctx, t.ID)
	warnStoreError(errOut, st)

	printOK(cfg, out)
	return exitcode.Success
}
