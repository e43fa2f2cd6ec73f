/*
main.go - Application entry point

PURPOSE:

	Command-line front end of the fiscal hours planner. Runs the hours
	service, loads demo data, and prints plan totals computed by the
	planner engine against a running service.

COMMANDS:

	serve     Start the HTTP server
	scenario  Reset the database and load a demo scenario
	totals    Open a plan through the service and print its totals

CONFIGURATION:

	configs/config.yaml, PLANNER_* environment variables, then flags.
	See config/config.go.

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Close database connection
	4. Exit

EXAMPLES:

	# Run with in-memory database and demo data
	planner serve --db=":memory:" --scenario=single-plan

	# Print totals of plan 1 from a running server
	planner totals 1 --base-url=http://localhost:8080

SEE ALSO:
  - api/server.go: Router configuration
  - remote/client.go: Client used by totals
  - planner/session.go: Engine controller
*/
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/fiscal-planner/config"
	"github.com/warp/fiscal-planner/logger"
)

// app carries the loaded configuration from the root command to its
// subcommands.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:          "planner",
		Short:        "Fiscal hours planner",
		Long:         `Plans per-day hours of people across projects and rolls them up by fiscal month into hours, cost and FTE.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: configs/config.yaml if present)")
	flags.String("db", "", "SQLite database path, \":memory:\" for in-memory")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("base-url", "", "hours service URL used by client commands")
	a.v.BindPFlag("database.path", flags.Lookup("db"))
	a.v.BindPFlag("logger.level", flags.Lookup("log-level"))
	a.v.BindPFlag("client.base_url", flags.Lookup("base-url"))

	rootCmd.AddCommand(
		newServeCommand(a),
		newScenarioCommand(a),
		newTotalsCommand(a),
	)
	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if _, err := logger.Init(cfg.Logger); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
