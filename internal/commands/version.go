package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/store"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd implements the version command.
type VersionCmd struct {
	verbose bool
}

func (c *VersionCmd) Name() string      { return "version" }
func (c *VersionCmd) Aliases() []string { return nil }
func (c *VersionCmd) Synopsis() string  { return "Print version" }
func (c *VersionCmd) Usage() string     { return "taskboard version [--verbose]" }
func (c *VersionCmd) NeedsStore() bool  { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	c.verbose = false
	fs.BoolVar(&c.verbose, "verbose", false, "")
}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "taskboard %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}

	s := cfg.Settings
	remote := s.API.BaseURL
	if s.Backend == config.BackendGoogleTasks {
		remote = "tasklist " + s.Google.TaskList
	}
	fmt.Fprintf(out, "backend: %s (%s)\n", backendName(s.Backend), remote)
	fmt.Fprintf(out, "cache:   %s (%s)\n", s.Cache.Driver, cfg.CachePath())
	fmt.Fprintf(out, "config:  %s\n", cfg.Dir)
	fmt.Fprintf(out, "go:      %s\n", runtime.Version())
	return exitcode.Success
}

func backendName(b string) string {
	if b == "" {
		return config.BackendREST
	}
	return b
}
