package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"coi-explorer/models"
	"coi-explorer/services"
)

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and validate without writing")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Write paper records from JSON or YAML files",
	Long: `Schreibt Paper-Datensätze aus Dateien in den Graphen.

Eine Datei enthält einen Datensatz oder eine Liste davon:

  doi: 10.1/x
  funders: [{name: DARPA}]
  authors:
    - name: Alice
      institution: [{name: MIT}]
      funders: [{name: NSF}]

Das Format richtet sich nach der Endung (.json, .yaml, .yml).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

// ImportResult fasst einen Import zusammen.
type ImportResult struct {
	Files   int                   `json:"files"`
	Records int                   `json:"records"`
	Failed  int                   `json:"failed"`
	Errors  []string              `json:"errors,omitempty"`
	Created services.UpsertResult `json:"created"`
}

func runImport(cmd *cobra.Command, args []string) error {
	var records []models.PaperRecord
	for _, path := range args {
		rs, err := parseRecordFile(path)
		if err != nil {
			return withCode(ExitDataError, err)
		}
		records = append(records, rs...)
	}

	if importDryRun {
		return outputJSON(cmd.OutOrStdout(), ImportResult{Files: len(args), Records: len(records)})
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	res := importRecords(cmd.Context(), e.upserter(), records)
	res.Files = len(args)
	if err := outputJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if res.Failed > 0 {
		return withCode(ExitDataError, fmt.Errorf("%d von %d Datensätzen fehlgeschlagen", res.Failed, res.Records))
	}
	return nil
}

// importRecords schreibt jeden Datensatz einzeln; Fehler werden gesammelt.
func importRecords(ctx context.Context, u *services.Upserter, records []models.PaperRecord) ImportResult {
	res := ImportResult{Records: len(records)}
	for _, r := range records {
		created, err := u.UpsertPaper(ctx, r)
		res.Created.Add(created)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", r.DOI, err))
		}
	}
	return res
}

// parseRecordFile liest einen Datensatz oder eine Liste von Datensätzen.
func parseRecordFile(path string) ([]models.PaperRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var records []models.PaperRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		records, err = parseJSONRecords(data)
	case ".yaml", ".yml":
		records, err = parseYAMLRecords(data)
	default:
		return nil, fmt.Errorf("%s: unbekanntes Format, erwartet .json, .yaml oder .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func parseJSONRecords(data []byte) ([]models.PaperRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("leere Datei")
	}
	if data[0] == '[' {
		var records []models.PaperRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var record models.PaperRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return []models.PaperRecord{record}, nil
}

func parseYAMLRecords(data []byte) ([]models.PaperRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, errors.New("leere Datei")
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var records []models.PaperRecord
		if err := root.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var record models.PaperRecord
	if err := root.Decode(&record); err != nil {
		return nil, err
	}
	return []models.PaperRecord{record}, nil
}
