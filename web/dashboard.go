package web

import (
	"bytes"
	"embed"
	"html/template"

	"coi-explorer/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// Flash ist eine Rückmeldung nach einem Ingest über das Formular.
type Flash struct {
	OK      bool
	Message string
}

// DashboardData ist der Zustand einer Dashboard-Seite.
type DashboardData struct {
	Query   string
	Graph   *services.Graph
	Matches []services.Node
	Details *services.NodeDetails
	Flash   *Flash
}

type templateData struct {
	DashboardData
	GraphJSON template.JS
	Layout    string
	NodeCount int
	EdgeCount int
}

// RenderDashboard rendert die Dashboard-Seite. Das Layout ist immer "cose",
// die Darstellung übernimmt Cytoscape.js im Browser.
func RenderDashboard(data DashboardData) ([]byte, error) {
	graphJSON, err := ToCytoscapeJSON(data.Graph)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = dashboardTemplate.Execute(&buf, templateData{
		DashboardData: data,
		GraphJSON:     template.JS(graphJSON),
		Layout:        "cose",
		NodeCount:     len(data.Graph.Nodes),
		EdgeCount:     len(data.Graph.Edges),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
