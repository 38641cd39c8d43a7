// Package layout arranges table nodes left to right with a layered
// (Sugiyama style) algorithm. Layout is a pure function of node ids, sizes
// and edges: the same input always yields the same positions.
package layout

import (
	"cmp"
	"slices"

	"schemaboard/internal/graph"
	"schemaboard/internal/models"
)

// Handle sides written to every node. Edges leave on the right and enter on
// the left because ranks grow along x.
const (
	PositionLeft  = "left"
	PositionRight = "right"
)

const (
	nodeWidth  = 250
	baseHeight = 36
	rowHeight  = 28
)

// NodeSize returns the rectangle a table with columnCount columns occupies.
// The extra row is the table header.
func NodeSize(columnCount int) (width, height float64) {
	return nodeWidth, float64(baseHeight + rowHeight*(columnCount+1))
}

// Node is a layout input and output. Only Position, SourcePosition and
// TargetPosition are written.
type Node struct {
	ID             string
	Width          float64
	Height         float64
	Position       models.Position
	SourcePosition string
	TargetPosition string
}

// Edge is a directed dependency from Source to Target.
type Edge struct {
	Source string
	Target string
}

// Options tune spacing. Zero fields take the defaults.
type Options struct {
	// RankSep is the horizontal gap between rank columns.
	RankSep float64
	// NodeSep is the vertical gap between nodes of a rank and between
	// isolated nodes.
	NodeSep float64
	// IsolatedPerRow caps how many unconnected tables share a row.
	IsolatedPerRow int
	// Sweeps is the number of barycenter passes, alternating down and up.
	Sweeps int
}

// DefaultOptions returns the spacing the editor uses.
func DefaultOptions() Options {
	return Options{RankSep: 120, NodeSep: 60, IsolatedPerRow: 4, Sweeps: 8}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.IsolatedPerRow <= 0 {
		o.IsolatedPerRow = d.IsolatedPerRow
	}
	if o.Sweeps <= 0 {
		o.Sweeps = d.Sweeps
	}
	return o
}

// Layout returns a copy of nodes, in the same order, with positions and
// handle sides assigned. Edges naming unknown nodes and self loops are
// ignored. Tables without relationships are packed in rows below the
// connected drawing.
func Layout(nodes []Node, edges []Edge, opts Options) []Node {
	opts = opts.withDefaults()

	out := make([]Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		out[i].SourcePosition = PositionRight
		out[i].TargetPosition = PositionLeft
	}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
	}

	adj := make([][]int, len(nodes))
	linked := make([]bool, len(nodes))
	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		u, ok := index[e.Source]
		if !ok {
			continue
		}
		v, ok := index[e.Target]
		if !ok || u == v || seen[[2]int{u, v}] {
			continue
		}
		seen[[2]int{u, v}] = true
		adj[u] = append(adj[u], v)
		linked[u], linked[v] = true, true
	}

	var connected, isolated []int
	for i := range nodes {
		if index[nodes[i].ID] != i {
			// duplicate id, place with the isolated tables
			isolated = append(isolated, i)
			continue
		}
		if linked[i] {
			connected = append(connected, i)
		} else {
			isolated = append(isolated, i)
		}
	}

	var bottom float64
	if len(connected) > 0 {
		dag := breakCycles(adj, connected)
		rank := longestPathRanks(dag, connected)
		lg := newLayered(dag, rank, connected, len(nodes))
		layers := lg.reduceCrossings(opts.Sweeps)
		bottom = placeLayers(out, layers, len(nodes), opts) + opts.RankSep
	}
	packIsolated(out, isolated, bottom, opts)
	return out
}

// Apply lays out every table of g and writes the result back through
// SetPlacement. Columns and labels are not touched.
func Apply(g *graph.Graph, opts Options) error {
	tables := g.Tables()
	nodes := make([]Node, len(tables))
	for i, t := range tables {
		w, h := NodeSize(len(t.Columns))
		nodes[i] = Node{ID: t.ID, Width: w, Height: h, Position: t.Position}
	}
	rels := g.Relationships()
	edges := make([]Edge, len(rels))
	for i, r := range rels {
		edges[i] = Edge{Source: r.SourceTableID, Target: r.TargetTableID}
	}

	for _, n := range Layout(nodes, edges, opts) {
		if err := g.SetPlacement(n.ID, n.Position, n.SourcePosition, n.TargetPosition); err != nil {
			return err
		}
	}
	return nil
}

// breakCycles walks the graph depth first in input order and reverses every
// edge that points back to a node on the current path.
func breakCycles(adj [][]int, order []int) [][]int {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]uint8, len(adj))
	dag := make([][]int, len(adj))
	has := make(map[[2]int]bool)
	add := func(u, v int) {
		if !has[[2]int{u, v}] {
			has[[2]int{u, v}] = true
			dag[u] = append(dag[u], v)
		}
	}

	var visit func(u int)
	visit = func(u int) {
		state[u] = onPath
		for _, v := range adj[u] {
			switch state[v] {
			case onPath:
				add(v, u)
			case unvisited:
				add(u, v)
				visit(v)
			default:
				add(u, v)
			}
		}
		state[u] = done
	}
	for _, u := range order {
		if state[u] == unvisited {
			visit(u)
		}
	}
	return dag
}

// longestPathRanks puts sources on rank 0 and every other node one rank
// right of its furthest predecessor.
func longestPathRanks(dag [][]int, order []int) []int {
	rank := make([]int, len(dag))
	indeg := make([]int, len(dag))
	for _, u := range order {
		for _, v := range dag[u] {
			indeg[v]++
		}
	}
	queue := make([]int, 0, len(order))
	for _, u := range order {
		if indeg[u] == 0 {
			queue = append(queue, u)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range dag[u] {
			rank[v] = max(rank[v], rank[u]+1)
			if indeg[v]--; indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return rank
}

// layered is the proper layered graph: edges spanning several ranks are
// split by dummy vertices so every edge joins adjacent layers. Vertex ids
// below real are input node indexes.
type layered struct {
	real   int
	up     [][]int
	down   [][]int
	layers [][]int
}

func newLayered(dag [][]int, rank []int, order []int, real int) *layered {
	lg := &layered{
		real: real,
		up:   make([][]int, real),
		down: make([][]int, real),
	}
	maxRank := 0
	for _, u := range order {
		maxRank = max(maxRank, rank[u])
	}
	lg.layers = make([][]int, maxRank+1)
	for _, u := range order {
		lg.layers[rank[u]] = append(lg.layers[rank[u]], u)
	}

	link := func(u, v int) {
		lg.down[u] = append(lg.down[u], v)
		lg.up[v] = append(lg.up[v], u)
	}
	for _, u := range order {
		for _, v := range dag[u] {
			prev := u
			for r := rank[u] + 1; r < rank[v]; r++ {
				d := len(lg.up)
				lg.up = append(lg.up, nil)
				lg.down = append(lg.down, nil)
				lg.layers[r] = append(lg.layers[r], d)
				link(prev, d)
				prev = d
			}
			link(prev, v)
		}
	}
	return lg
}

// reduceCrossings runs alternating barycenter sweeps and returns the layer
// ordering with the fewest crossings seen.
func (lg *layered) reduceCrossings(sweeps int) [][]int {
	pos := make([]int, len(lg.up))
	for _, layer := range lg.layers {
		for i, v := range layer {
			pos[v] = i
		}
	}

	best := cloneLayers(lg.layers)
	bestCrossings := lg.crossings(pos)
	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		if i%2 == 0 {
			for r := 1; r < len(lg.layers); r++ {
				sortByBarycenter(lg.layers[r], lg.up, pos)
			}
		} else {
			for r := len(lg.layers) - 2; r >= 0; r-- {
				sortByBarycenter(lg.layers[r], lg.down, pos)
			}
		}
		if c := lg.crossings(pos); c < bestCrossings {
			best = cloneLayers(lg.layers)
			bestCrossings = c
		}
	}
	return best
}

// sortByBarycenter orders layer by the mean position of each vertex's
// neighbours in the fixed layer. Vertices without neighbours keep their slot
// and ties keep their current order.
func sortByBarycenter(layer []int, neighbours [][]int, pos []int) {
	bary := make(map[int]float64, len(layer))
	for _, v := range layer {
		ns := neighbours[v]
		if len(ns) == 0 {
			bary[v] = float64(pos[v])
			continue
		}
		sum := 0
		for _, w := range ns {
			sum += pos[w]
		}
		bary[v] = float64(sum) / float64(len(ns))
	}
	slices.SortStableFunc(layer, func(a, b int) int {
		return cmp.Compare(bary[a], bary[b])
	})
	for i, v := range layer {
		pos[v] = i
	}
}

func (lg *layered) crossings(pos []int) int {
	total := 0
	for r := 0; r+1 < len(lg.layers); r++ {
		var segs [][2]int
		for _, u := range lg.layers[r] {
			for _, v := range lg.down[u] {
				segs = append(segs, [2]int{pos[u], pos[v]})
			}
		}
		for i := range segs {
			for j := i + 1; j < len(segs); j++ {
				a, b := segs[i], segs[j]
				if (a[0] < b[0] && a[1] > b[1]) || (a[0] > b[0] && a[1] < b[1]) {
					total++
				}
			}
		}
	}
	return total
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, l := range layers {
		out[i] = slices.Clone(l)
	}
	return out
}

// placeLayers assigns top-left positions: one column per rank, nodes of a
// rank stacked and centred against the tallest rank. Dummy vertices take no
// space. It returns the height of the drawing.
func placeLayers(out []Node, layers [][]int, real int, opts Options) float64 {
	heights := make([]float64, len(layers))
	var tallest float64
	for r, layer := range layers {
		n := 0
		for _, v := range layer {
			if v < real {
				heights[r] += out[v].Height
				n++
			}
		}
		if n > 1 {
			heights[r] += opts.NodeSep * float64(n-1)
		}
		tallest = max(tallest, heights[r])
	}

	var x float64
	for r, layer := range layers {
		y := (tallest - heights[r]) / 2
		var width float64
		for _, v := range layer {
			if v >= real {
				continue
			}
			out[v].Position = models.Position{X: x, Y: y}
			y += out[v].Height + opts.NodeSep
			width = max(width, out[v].Width)
		}
		x += width + opts.RankSep
	}
	return tallest
}

func packIsolated(out []Node, isolated []int, top float64, opts Options) {
	var x, rowHeight float64
	y := top
	for i, v := range isolated {
		if i > 0 && i%opts.IsolatedPerRow == 0 {
			y += rowHeight + opts.NodeSep
			x, rowHeight = 0, 0
		}
		out[v].Position = models.Position{X: x, Y: y}
		x += out[v].Width + opts.NodeSep
		rowHeight = max(rowHeight, out[v].Height)
	}
}
