package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"coi-explorer/models"
)

// Node ist ein Knoten im Beziehungsgraphen: Autor, Einrichtung oder Geldgeber.
type Node struct {
	ID       string      `json:"id"`
	Kind     models.Kind `json:"kind"`
	EntityID uint        `json:"entity_id"`
	Label    string      `json:"label"`
	Degree   int         `json:"degree"`
}

// Edge verbindet einen Autor mit einer Einrichtung oder einem Geldgeber.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

const (
	EdgeAffiliation = "affiliation"
	EdgeFunding     = "funding"
)

// Graph ist der ungerichtete Autor-Einrichtung-Geldgeber-Graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	index map[string]int
}

// NodeID bildet den Knotenschlüssel aus Art und ID, damit gleichnamige
// Entitäten verschiedener Art getrennt bleiben.
func NodeID(kind models.Kind, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func newGraph() *Graph {
	return &Graph{Nodes: []Node{}, Edges: []Edge{}, index: map[string]int{}}
}

func (g *Graph) addNode(n Node) {
	if _, ok := g.index[n.ID]; ok {
		return
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

// Node gibt den Knoten mit der ID id zurück.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// LoadAuthors liest alle Autoren mit Einrichtungen und Förderungen samt Geldgeber.
func LoadAuthors(ctx context.Context, db *gorm.DB) ([]models.Author, error) {
	var authors []models.Author
	err := db.WithContext(ctx).
		Preload("Institutions").
		Preload("Fundings.Funder").
		Order("id").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("autoren laden: %w", err)
	}
	return authors, nil
}

// BuildGraph baut den Graphen aus den Autoren. Pro Autor und Geldgeber gibt es
// eine Kante, auch wenn mehrere Paper gefördert wurden.
func BuildGraph(authors []models.Author) *Graph {
	g := newGraph()
	seen := map[string]bool{}
	link := func(source, target, kind string) {
		id := source + "-" + target
		if seen[id] {
			return
		}
		seen[id] = true
		g.Edges = append(g.Edges, Edge{ID: id, Source: source, Target: target, Kind: kind})
		g.Nodes[g.index[source]].Degree++
		g.Nodes[g.index[target]].Degree++
	}

	for _, a := range authors {
		aid := NodeID(models.KindAuthor, a.ID)
		g.addNode(Node{ID: aid, Kind: models.KindAuthor, EntityID: a.ID, Label: a.Name})

		for _, inst := range a.Institutions {
			iid := NodeID(models.KindInstitution, inst.ID)
			g.addNode(Node{ID: iid, Kind: models.KindInstitution, EntityID: inst.ID, Label: inst.Name})
			link(aid, iid, EdgeAffiliation)
		}
		for _, f := range a.Fundings {
			if f.Funder == nil {
				continue
			}
			fid := NodeID(models.KindFunder, f.FunderID)
			g.addNode(Node{ID: fid, Kind: models.KindFunder, EntityID: f.FunderID, Label: f.Funder.Name})
			link(aid, fid, EdgeFunding)
		}
	}
	return g
}

// Matches gibt alle Knoten zurück, deren Bezeichnung query enthält, ohne
// Beachtung von Groß-/Kleinschreibung.
func (g *Graph) Matches(query string) []Node {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []Node
	for _, n := range g.Nodes {
		if strings.Contains(fold.String(n.Label), needle) {
			out = append(out, n)
		}
	}
	return out
}

// Filter behält die Treffer zu query und deren direkte Nachbarn sowie alle Kanten
// zwischen behaltenen Knoten. Eine leere Anfrage liefert den ganzen Graphen.
func Filter(g *Graph, query string) *Graph {
	if strings.TrimSpace(query) == "" {
		return g
	}

	keep := map[string]bool{}
	for _, n := range g.Matches(query) {
		keep[n.ID] = true
	}
	matched := make(map[string]bool, len(keep))
	for id := range keep {
		matched[id] = true
	}
	for _, e := range g.Edges {
		if matched[e.Source] {
			keep[e.Target] = true
		}
		if matched[e.Target] {
			keep[e.Source] = true
		}
	}

	out := newGraph()
	for _, n := range g.Nodes {
		if keep[n.ID] {
			n.Degree = 0
			out.addNode(n)
		}
	}
	for _, e := range g.Edges {
		if keep[e.Source] && keep[e.Target] {
			out.Edges = append(out.Edges, e)
			out.Nodes[out.index[e.Source]].Degree++
			out.Nodes[out.index[e.Target]].Degree++
		}
	}
	return out
}

// NodeDetails listet die Nachbarn eines Knotens nach Art.
type NodeDetails struct {
	Node         Node   `json:"node"`
	Authors      []Node `json:"authors"`
	Institutions []Node `json:"institutions"`
	Funders      []Node `json:"funders"`
}

// Details gibt die Nachbarn des Knotens id zurück: für Autoren Einrichtungen und
// Geldgeber, für Einrichtungen und Geldgeber die Autoren.
func Details(g *Graph, id string) (*NodeDetails, bool) {
	node, ok := g.Node(id)
	if !ok {
		return nil, false
	}
	d := &NodeDetails{Node: node, Authors: []Node{}, Institutions: []Node{}, Funders: []Node{}}
	for _, e := range g.Edges {
		var other string
		switch id {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		n, _ := g.Node(other)
		switch n.Kind {
		case models.KindAuthor:
			d.Authors = append(d.Authors, n)
		case models.KindInstitution:
			d.Institutions = append(d.Institutions, n)
		case models.KindFunder:
			d.Funders = append(d.Funders, n)
		}
	}
	for _, list := range [][]Node{d.Authors, d.Institutions, d.Funders} {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Label < list[j].Label })
	}
	return d, true
}

// GraphService liest den Graphen aus der Datenbank.
type GraphService struct {
	DB *gorm.DB
}

// Load liest alle Autoren und baut daraus den vollständigen Graphen.
func (s *GraphService) Load(ctx context.Context) (*Graph, error) {
	authors, err := LoadAuthors(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return BuildGraph(authors), nil
}
