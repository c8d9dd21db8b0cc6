package web

import (
	"encoding/json"
	"fmt"

	"coi-explorer/services"
)

// CytoscapeElements ist das Cytoscape.js-Datenformat.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode ist ein Knoten im Cytoscape.js-Format.
type CytoscapeNode struct {
	Data services.Node `json:"data"`
}

// CytoscapeEdge ist eine Kante im Cytoscape.js-Format.
type CytoscapeEdge struct {
	Data services.Edge `json:"data"`
}

// ToCytoscape wandelt den Graphen in Cytoscape.js-Elemente.
func ToCytoscape(g *services.Graph) CytoscapeElements {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		elements.Nodes = append(elements.Nodes, CytoscapeNode{Data: n})
	}
	for _, e := range g.Edges {
		elements.Edges = append(elements.Edges, CytoscapeEdge{Data: e})
	}
	return elements
}

// ToCytoscapeJSON serialisiert den Graphen für das Dashboard.
func ToCytoscapeJSON(g *services.Graph) (string, error) {
	b, err := json.Marshal(ToCytoscape(g))
	if err != nil {
		return "", fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	return string(b), nil
}
