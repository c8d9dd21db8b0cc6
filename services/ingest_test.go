package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/models"
	"coi-explorer/providers"
)

// fakeProvider liefert Datensätze aus einer Map, unbekannte DOIs sind ErrNotFound.
type fakeProvider struct {
	name    string
	records map[string]models.PaperRecord
	err     error
	calls   []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, doi string) (*models.PaperRecord, error) {
	f.calls = append(f.calls, doi)
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.records[doi]
	if !ok {
		return nil, providers.ErrNotFound
	}
	return &r, nil
}

func newTestIngestor(t *testing.T, list ...providers.Provider) (*Ingestor, *Upserter) {
	t.Helper()
	u, db := newTestUpserter(t)
	return NewIngestor(db, u, list, zap.NewNop()), u
}

func TestLookupNormalizesDOI(t *testing.T) {
	p := &fakeProvider{name: "fake", records: map[string]models.PaperRecord{"10.1/x": aliceRecord("Alice", "MIT")}}
	ing, _ := newTestIngestor(t, p)

	record, provider := ing.Lookup(context.Background(), " https://doi.org/10.1/X ")
	require.NotNil(t, record)
	assert.Equal(t, "fake", provider)
	assert.Equal(t, []string{"10.1/x"}, p.calls)
}

func TestLookupFallsThroughProviders(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("connection reset")}
	empty := &fakeProvider{name: "empty"}
	full := &fakeProvider{name: "full", records: map[string]models.PaperRecord{"10.1/x": aliceRecord("Alice", "MIT")}}
	ing, _ := newTestIngestor(t, broken, empty, full)

	record, provider := ing.Lookup(context.Background(), "10.1/x")
	require.NotNil(t, record)
	assert.Equal(t, "full", provider)
	assert.Len(t, broken.calls, 1)
	assert.Len(t, empty.calls, 1)
}

func TestLookupEmptyDOI(t *testing.T) {
	p := &fakeProvider{name: "fake"}
	ing, _ := newTestIngestor(t, p)

	record, _ := ing.Lookup(context.Background(), "doi: ")
	assert.Nil(t, record)
	assert.Empty(t, p.calls)
}

func TestIngestUnknownDOIWritesNothing(t *testing.T) {
	p := &fakeProvider{name: "fake"}
	ing, _ := newTestIngestor(t, p)

	res, err := ing.Ingest(context.Background(), "10.9999/does-not-exist")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Zero(t, res.Upsert.Mutations())
	for table, n := range counts(t, ing.DB) {
		assert.Zero(t, n, table)
	}
}

func TestIngestTransportErrorWritesNothing(t *testing.T) {
	p := &fakeProvider{name: "fake", err: errors.New("timeout")}
	ing, _ := newTestIngestor(t, p)

	res, err := ing.Ingest(context.Background(), "10.1/x")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.EqualValues(t, 0, counts(t, ing.DB)["papers"])
}

func TestIngestWritesRecord(t *testing.T) {
	p := &fakeProvider{name: "fake", records: map[string]models.PaperRecord{"10.1/x": aliceRecord("Alice", "MIT")}}
	ing, _ := newTestIngestor(t, p)

	res, err := ing.Ingest(context.Background(), "doi:10.1/x")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "10.1/x", res.DOI)
	assert.Equal(t, 1, res.Authors)
	assert.Equal(t, 1, res.Upsert.Fundings)

	again, err := ing.Ingest(context.Background(), "10.1/x")
	require.NoError(t, err)
	assert.Zero(t, again.Upsert.Mutations())
}

func TestIngestInvalidRecordFromProvider(t *testing.T) {
	p := &fakeProvider{name: "fake", records: map[string]models.PaperRecord{"10.1/x": {DOI: ""}}}
	ing, _ := newTestIngestor(t, p)

	res, err := ing.Ingest(context.Background(), "10.1/x")
	assert.True(t, res.Found)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRefreshAllPicksUpNewAffiliations(t *testing.T) {
	p := &fakeProvider{name: "fake", records: map[string]models.PaperRecord{}}
	ing, u := newTestIngestor(t, p)
	ctx := context.Background()

	_, err := u.UpsertPaper(ctx, aliceRecord("Alice", "MIT"))
	require.NoError(t, err)
	_, err = u.UpsertPaper(ctx, models.PaperRecord{DOI: "10.1/gone"})
	require.NoError(t, err)

	updated := aliceRecord("Alice", "MIT")
	updated.Authors[0].Institution = append(updated.Authors[0].Institution, models.NameRecord{Name: "Harvard"})
	p.records["10.1/x"] = updated

	res, err := ing.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Papers)
	assert.Equal(t, 1, res.Missing)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 1, res.Upserted.Institutions)
	assert.Equal(t, 1, res.Upserted.Affiliations)
	assert.ElementsMatch(t, []string{"10.1/x", "10.1/gone"}, p.calls)
}

func TestNewProviders(t *testing.T) {
	cfg := &config.Config{EnabledProviders: "europepmc, openalex,pubmed"}
	list, err := NewProviders(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "europepmc", list[0].Name())
	assert.Equal(t, "openalex", list[1].Name())
	assert.Equal(t, "pubmed", list[2].Name())

	_, err = NewProviders(&config.Config{EnabledProviders: "unpaywall"}, zap.NewNop())
	assert.Error(t, err)
}
