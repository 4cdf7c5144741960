package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/logging"
	"taskboard/internal/server"
	"taskboard/internal/store"
	"taskboard/internal/taskdb"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command. It runs the REST API that the
// rest backend talks to.
type ServeCmd struct {
	addr   string
	driver string
	dsn    string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Run the task REST API server" }
func (c *ServeCmd) Usage() string {
	return "taskboard serve [--addr :5000] [--driver sqlite3|mysql] [--dsn DSN]"
}
func (c *ServeCmd) NeedsStore() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
	fs.StringVar(&c.driver, "driver", "", "")
	fs.StringVar(&c.dsn, "dsn", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, _ *store.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	addr := firstNonEmpty(c.addr, cfg.Settings.Server.Addr, server.DefaultAddr)
	driver := firstNonEmpty(c.driver, cfg.Settings.Server.Driver, taskdb.DriverSQLite)
	dsn := firstNonEmpty(c.dsn, cfg.ServerDSN())

	// The server always reports requests, so it logs at info at least.
	logger := logging.New(errOut, logging.Options{
		Level:      "info",
		Debug:      cfg.Debug || cfg.Settings.Log.Level == "debug",
		Timestamps: true,
	})
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := taskdb.Open(driver, dsn)
	if err != nil {
		fmt.Fprintf(errOut, "error: open database: %v\n", err)
		return exitcode.BackendError
	}
	defer db.Close()
	logger.Info("database ready", "driver", driver)

	srv := server.New(db, server.WithLogger(logger))
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
