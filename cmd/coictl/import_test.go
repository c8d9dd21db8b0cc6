package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coi-explorer/models"
	"coi-explorer/services"
	"coi-explorer/storage/storagetest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var alice = models.PaperRecord{
	DOI:     "10.1/x",
	Funders: []models.NameRecord{{Name: "DARPA"}},
	Authors: []models.AuthorRecord{{
		Name:        "Alice",
		Institution: []models.NameRecord{{Name: "MIT"}},
		Funders:     []models.NameRecord{{Name: "NSF"}},
	}},
}

func TestParseRecordFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []models.PaperRecord
	}{
		{
			name:    "json object",
			file:    "paper.json",
			content: `{"doi":"10.1/x","funders":[{"name":"DARPA"}],"authors":[{"name":"Alice","institution":[{"name":"MIT"}],"funders":[{"name":"NSF"}]}]}`,
			want:    []models.PaperRecord{alice},
		},
		{
			name:    "json list",
			file:    "papers.json",
			content: `[{"doi":"10.1/a"},{"doi":"10.1/b"}]`,
			want:    []models.PaperRecord{{DOI: "10.1/a"}, {DOI: "10.1/b"}},
		},
		{
			name: "yaml object",
			file: "paper.yaml",
			content: `doi: 10.1/x
funders:
  - name: DARPA
authors:
  - name: Alice
    institution:
      - name: MIT
    funders:
      - name: NSF
`,
			want: []models.PaperRecord{alice},
		},
		{
			name: "yaml list",
			file: "papers.yml",
			content: `- doi: 10.1/a
- doi: 10.1/b
`,
			want: []models.PaperRecord{{DOI: "10.1/a"}, {DOI: "10.1/b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecordFile(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecordFileErrors(t *testing.T) {
	for name, content := range map[string]string{
		"paper.txt":  `{"doi":"10.1/x"}`,
		"empty.json": "  ",
		"bad.json":   `{"doi":`,
		"empty.yaml": "",
		"bad.yaml":   "doi: [",
	} {
		_, err := parseRecordFile(writeFile(t, name, content))
		assert.Error(t, err, name)
	}

	_, err := parseRecordFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestImportRecordsCollectsFailures(t *testing.T) {
	db := storagetest.NewDB(t)
	log := zap.NewNop()
	u := services.NewUpserter(db, services.NewResolver(0.7, log), log)

	res := importRecords(context.Background(), u, []models.PaperRecord{alice, {DOI: ""}, alice})
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Created.Papers)
	assert.Equal(t, 1, res.Created.Fundings)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitDataError, exitCode(withCode(ExitDataError, errors.New("x"))))
	assert.Equal(t, ExitError, exitCode(errors.New("x")))
	assert.NoError(t, withCode(ExitDataError, nil))
}
