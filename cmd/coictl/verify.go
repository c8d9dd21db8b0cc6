package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coi-explorer/services"
	"coi-explorer/storage"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(migrateCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check edges for dangling references and names for case-insensitive duplicates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		problems, err := services.Verify(cmd.Context(), e.db)
		if err != nil {
			return err
		}
		counts, err := storage.TableCounts(e.db)
		if err != nil {
			return err
		}
		if err := outputJSON(cmd.OutOrStdout(), map[string]any{"tables": counts, "problems": problems}); err != nil {
			return err
		}
		if len(problems) > 0 {
			return withCode(ExitDataError, fmt.Errorf("%d Probleme gefunden", len(problems)))
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// OpenDatabase migriert beim Öffnen
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()
		fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", e.cfg.DBDriver)
		return nil
	},
}
