package europepmc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coi-explorer/config"
	"coi-explorer/models"
	"coi-explorer/providers"
)

const searchJSON = `{
  "hitCount": 1,
  "resultList": {"result": [{
    "id": "123", "source": "MED", "pmid": "123", "doi": "10.1000/EPMC",
    "authorList": {"author": [
      {"fullName": "Doe J", "authorAffiliationDetailsList": {"authorAffiliation": [
        {"affiliation": "University of Oxford"}, {"affiliation": " University of Oxford "}
      ]}},
      {"firstName": "Ann", "lastName": "Lee"},
      {}
    ]},
    "grantsList": {"grant": [
      {"grantId": "G1", "agency": "Wellcome Trust"},
      {"grantId": "G2", "agency": "Wellcome Trust"},
      {"grantId": "G3", "agency": "Medical Research Council"}
    ]}
  }]}
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{EuropePMCBaseURL: srv.URL, UserAgent: "coi-test/1.0"}
	return NewFetcher(cfg, zap.NewNop())
}

func TestFetchMapsArticle(t *testing.T) {
	var query string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "core", r.URL.Query().Get("resultType"))
		query = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(searchJSON))
	})

	record, err := f.Fetch(context.Background(), "10.1000/epmc")
	require.NoError(t, err)
	assert.Equal(t, `DOI:"10.1000/epmc"`, query)

	funders := []models.NameRecord{{Name: "Wellcome Trust"}, {Name: "Medical Research Council"}}
	assert.Equal(t, &models.PaperRecord{
		DOI:     "10.1000/epmc",
		Funders: funders,
		Authors: []models.AuthorRecord{
			{Name: "Doe J", Institution: []models.NameRecord{{Name: "University of Oxford"}}, Funders: funders},
			{Name: "Ann Lee", Funders: funders},
		},
	}, record)
}

func TestFetchZeroHitsIsNotFound(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hitCount":0,"resultList":{"result":[]}}`))
	})

	record, err := f.Fetch(context.Background(), "10.1000/none")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, providers.ErrNotFound)
}

func TestFetchTransportError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := f.Fetch(context.Background(), "10.1000/epmc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrNotFound)
}
