package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/providers"
	"coi-explorer/services"
)

var fetchDryRun bool

func init() {
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "Print the fetched record without writing")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <doi>",
	Short: "Fetch a paper by DOI from the enabled providers and write it",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchDryRun {
		return fetchOnly(cmd, args[0])
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	list, err := services.NewProviders(e.cfg, e.log)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	ingestor := services.NewIngestor(e.db, e.upserter(), list, e.log)
	res, err := ingestor.Ingest(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := outputJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Found {
		return withCode(ExitDataError, fmt.Errorf("kein Provider kennt %s", res.DOI))
	}
	return nil
}

// fetchOnly fragt die Provider ohne Datenbank ab.
func fetchOnly(cmd *cobra.Command, doi string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	cfg, err := config.Load()
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	list, err := services.NewProviders(cfg, log)
	if err != nil {
		return withCode(ExitConfigError, err)
	}

	ingestor := services.NewIngestor(nil, nil, list, log)
	record, provider := ingestor.Lookup(cmd.Context(), doi)
	if record == nil {
		return withCode(ExitDataError, fmt.Errorf("kein Provider kennt %s", providers.NormalizeDOI(doi)))
	}
	log.Debug("Datensatz geholt", zap.String("provider", provider))
	return outputJSON(cmd.OutOrStdout(), record)
}
