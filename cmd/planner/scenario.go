package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/fiscal-planner/api"
	"github.com/warp/fiscal-planner/logger"
	"github.com/warp/fiscal-planner/store/sqlite"
)

func newScenarioCommand(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "scenario [id]",
		Short: "Reset the database and load a demo scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list || len(args) == 0 {
				for _, s := range api.Scenarios() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", s.ID, s.Description)
				}
				return nil
			}

			store, err := sqlite.New(a.cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			if err := api.ApplyScenario(cmd.Context(), store, args[0]); err != nil {
				return err
			}
			logger.WithComponent("cli").Info("scenario loaded", "scenario", args[0], "db", a.cfg.Database.Path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available scenarios")
	return cmd
}
