package sync

import (
	"context"

	"schemaboard/internal/graph"
	"schemaboard/internal/layout"
	"schemaboard/internal/models"
)

// SessionOptions control how Open prepares the graph.
type SessionOptions struct {
	// SeedStarter fills an empty project with StarterSchema.
	SeedStarter bool
	// Layout is passed to the layout engine.
	Layout layout.Options
	// KeepPositions skips the layout pass when the loaded document already
	// carries positions.
	KeepPositions bool
}

// Session is an editing session: a graph backed by a controller.
type Session struct {
	Graph      *graph.Graph
	Controller *Controller
}

// Open loads the project through c, builds the graph and lays it out. When
// loading fails the session still opens on the starter schema and the load
// error is returned alongside it.
func Open(ctx context.Context, c *Controller, opts SessionOptions) (*Session, error) {
	doc, loadErr := c.Load(ctx)
	if loadErr == nil && len(doc.Nodes) == 0 && opts.SeedStarter {
		doc = StarterSchema()
	}

	g := graph.FromDocument(doc)
	if !opts.KeepPositions || !positioned(doc) {
		if err := layout.Apply(g, opts.Layout); err != nil {
			return nil, err
		}
	}
	return &Session{Graph: g, Controller: c}, loadErr
}

func positioned(doc models.SchemaDocument) bool {
	for _, n := range doc.Nodes {
		if n.Position != (models.Position{}) {
			return true
		}
	}
	return false
}

// Save persists the current graph.
func (s *Session) Save(ctx context.Context) (SaveResult, error) {
	return s.Controller.Save(ctx, s.Graph.Snapshot())
}

// EnableAutoSave saves graph snapshots after each quiet period.
func (s *Session) EnableAutoSave() {
	s.Controller.EnableAutoSave(s.Graph.Snapshot)
}

// Touch forwards a mutation notice to the controller. It matches the
// editor's change hook.
func (s *Session) Touch() {
	s.Controller.Touch()
}

// Close releases the controller.
func (s *Session) Close() {
	s.Controller.Close()
}
