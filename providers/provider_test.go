package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coi-explorer/models"
)

func TestNormalizeDOI(t *testing.T) {
	tests := map[string]string{
		"10.1000/ABC":                    "10.1000/abc",
		"  10.1000/abc\n":                "10.1000/abc",
		"https://doi.org/10.1000/ABC":    "10.1000/abc",
		"http://doi.org/10.1000/abc":     "10.1000/abc",
		"https://dx.doi.org/10.1000/abc": "10.1000/abc",
		"doi:10.1000/abc":                "10.1000/abc",
		"DOI: 10.1000/abc":               "10.1000/abc",
		"HTTPS://DOI.ORG/10.1000/abc":    "10.1000/abc",
		"":                               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDOI(in), in)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"NIH", "", "NSF", "NIH", "nih"})
	assert.Equal(t, []models.NameRecord{{Name: "NIH"}, {Name: "NSF"}, {Name: "nih"}}, got)
	assert.Empty(t, Dedupe(nil))
	assert.Equal(t, []models.NameRecord{{Name: "Max Planck"}}, Dedupe([]string{"Max  Planck", " Max\tPlanck ", "\u00a0"}))
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"  Jane   Doe ":         "Jane Doe",
		"Ecole\u0301 Normale":   "Ecol\u00e9 Normale",
		"E\u0301cole":           "\u00c9cole",
		"Of\ufb01ce of Science": "Office of Science",
		"Wellcome\nTrust":       "Wellcome Trust",
		"MIT":                   "MIT",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanName(in), in)
	}
}

func TestClientGetJSON(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"value":"x"}`))
		case "/broken":
			_, _ = w.Write([]byte(`{`))
		case "/fail":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient("coi-test/1.0", 0, 5*time.Second)
	ctx := context.Background()

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, c.GetJSON(ctx, srv.URL+"/ok", &out))
	assert.Equal(t, "x", out.Value)
	assert.Equal(t, "coi-test/1.0", agent)

	assert.ErrorIs(t, c.GetJSON(ctx, srv.URL+"/missing", &out), ErrNotFound)

	err := c.GetJSON(ctx, srv.URL+"/fail", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "502")

	assert.Error(t, c.GetJSON(ctx, srv.URL+"/broken", &out))
}

func TestClientGetXML(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`<root><value>x</value></root>`))
	}))
	defer srv.Close()

	var out struct {
		Value string `xml:"value"`
	}
	c := NewClient("coi-test/1.0", 0, 5*time.Second)
	require.NoError(t, c.GetXML(context.Background(), srv.URL, &out))
	assert.Equal(t, "x", out.Value)
	assert.Equal(t, "application/xml", accept)
}

func TestClientRespectsCanceledContext(t *testing.T) {
	c := NewClient("coi-test/1.0", 0.001, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]any
	assert.Error(t, c.GetJSON(ctx, "http://127.0.0.1:1/", &out))
}
