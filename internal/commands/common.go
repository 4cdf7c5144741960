package commands

import (
	"context"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

// loadAll fills the store with the unfiltered list so positional refs and
// fallback cache snapshots cover every task.
func loadAll(ctx context.Context, st *store.Store) {
	st.Load(ctx, task.FilterAll, "")
}

// warnStoreError prints the store's non-fatal error message, if any.
// Store fallbacks never change the exit code.
func warnStoreError(errOut io.Writer, st *store.Store) {
	if msg := st.Error(); msg != "" {
		fmt.Fprintf(errOut, "warning: %s\n", msg)
	}
}

// resolveRef parses args[0] and finds the task in st.
// On failure it prints the error and returns a non-zero exit code.
func resolveRef(st *store.Store, args []string, errOut io.Writer) (task.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return task.Task{}, exitcode.UserError
	}
	t, err := ref.Resolve(st)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return task.Task{}, exitcode.UserError
	}
	return t, exitcode.Success
}

// parseTaskFlags validates --priority and --due values.
// An empty priority is returned as-is so callers can keep the current value.
func parseTaskFlags(priority, due string) (task.Priority, task.Date, error) {
	var p task.Priority
	if priority != "" {
		parsed, err := task.ParsePriority(priority)
		if err != nil {
			return "", task.Date{}, err
		}
		p = parsed
	}
	d, err := task.ParseOptionalDate(due)
	if err != nil {
		return "", task.Date{}, err
	}
	return p, d, nil
}

func printOK(cfg *config.Config, out io.Writer) {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
}
