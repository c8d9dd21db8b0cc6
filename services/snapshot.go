package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coi-explorer/storage"
)

// Snapshotter legt den aktuellen Graphen als JSON im Objektspeicher ab und
// behält nur die neuesten Keep Snapshots.
type Snapshotter struct {
	Graph  *GraphService
	Store  storage.ObjectStore
	Prefix string
	Keep   int
	Logger *zap.Logger

	Now func() time.Time
}

// Snapshot ist das abgelegte Format.
type Snapshot struct {
	CreatedAt time.Time `json:"created_at"`
	Graph     *Graph    `json:"graph"`
}

// Run schreibt einen Snapshot und rotiert alte. Zurückgegeben wird der Link.
func (s *Snapshotter) Run(ctx context.Context) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	createdAt := now().UTC()

	g, err := s.Graph.Load(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(Snapshot{CreatedAt: createdAt, Graph: g})
	if err != nil {
		return "", fmt.Errorf("snapshot serialisieren: %w", err)
	}

	key := fmt.Sprintf("%sgraph-%s.json", s.Prefix, createdAt.Format("2006-01-02T15-04-05Z"))
	link, err := s.Store.Put(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("snapshot hochladen: %w", err)
	}
	s.Logger.Info("Graph-Snapshot hochgeladen",
		zap.String("key", key),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)))

	if s.Keep > 0 {
		deleted, err := storage.Rotate(ctx, s.Store, s.Prefix, s.Keep)
		for _, k := range deleted {
			s.Logger.Info("Alter Snapshot gelöscht", zap.String("key", k))
		}
		if err != nil {
			s.Logger.Warn("Rotation unvollständig", zap.Error(err))
		}
	}
	return link, nil
}
