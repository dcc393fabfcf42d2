// Package memory serves the graph data source from a fixture held in memory.
// It backs local development and demos without a running graph API.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"kgexplorer/application/ports"
	"kgexplorer/domain/core/raw"
	apperrors "kgexplorer/pkg/errors"
)

// maxPaths bounds the number of paths FindConnection returns
const maxPaths = 10

var (
	_ ports.GraphDataSource = (*Source)(nil)
	_ ports.HealthChecker   = (*Source)(nil)
)

// Fixture is the on-disk graph. JSON fixtures decode too.
type Fixture struct {
	Nodes []raw.Node `yaml:"nodes"`
	Edges []raw.Edge `yaml:"edges"`

	// Vocabulary declares relationship types up front, including inactive ones
	Vocabulary []VocabularyEntry `yaml:"vocabulary"`
}

// VocabularyEntry pins a relationship type's category and active flag
type VocabularyEntry struct {
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Inactive bool   `yaml:"inactive"`
}

type neighbor struct {
	id   string
	edge int
}

// Source answers graph queries from a fixture
type Source struct {
	nodes     map[string]raw.Node
	order     []string
	edges     []raw.Edge
	adjacency map[string][]neighbor
	declared  map[string]VocabularyEntry

	mu         sync.RWMutex
	vocabulary []raw.VocabularyType

	logger *zap.Logger
}

// Load reads a fixture file
func Load(path string, logger *zap.Logger) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	source, err := New(fixture, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid fixture %s: %w", path, err)
	}
	logger.Info("Loaded graph fixture",
		zap.String("path", path),
		zap.Int("nodes", len(source.nodes)),
		zap.Int("edges", len(source.edges)),
	)
	return source, nil
}

// New indexes a fixture. Every edge must reference declared nodes.
func New(fixture Fixture, logger *zap.Logger) (*Source, error) {
	s := &Source{
		nodes:     make(map[string]raw.Node, len(fixture.Nodes)),
		adjacency: make(map[string][]neighbor),
		declared:  make(map[string]VocabularyEntry, len(fixture.Vocabulary)),
		logger:    logger,
	}

	for _, n := range fixture.Nodes {
		key := n.Key()
		if key == "" {
			return nil, fmt.Errorf("node without concept_id")
		}
		if _, dup := s.nodes[key]; dup {
			return nil, fmt.Errorf("duplicate node %q", key)
		}
		n.ConceptID = key
		s.nodes[key] = n
		s.order = append(s.order, key)
	}

	for i, e := range fixture.Edges {
		from, to := e.SourceID(), e.TargetID()
		if _, ok := s.nodes[from]; !ok {
			return nil, fmt.Errorf("edge %d references unknown node %q", i, from)
		}
		if _, ok := s.nodes[to]; !ok {
			return nil, fmt.Errorf("edge %d references unknown node %q", i, to)
		}
		e.Source, e.Target = raw.NewRef(from), raw.NewRef(to)
		e.FromID, e.ToID = "", ""
		s.edges = append(s.edges, e)
		s.adjacency[from] = append(s.adjacency[from], neighbor{id: to, edge: i})
		if from != to {
			s.adjacency[to] = append(s.adjacency[to], neighbor{id: from, edge: i})
		}
	}

	for _, v := range fixture.Vocabulary {
		s.declared[v.Type] = v
	}
	s.vocabulary = s.computeVocabulary(false)

	return s, nil
}

// GetSubgraph implements ports.GraphDataSource with a breadth-first walk that ignores edge direction
func (s *Source) GetSubgraph(ctx context.Context, centerID string, depth, limit int) (*raw.Graph, error) {
	if _, ok := s.nodes[centerID]; !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("concept '%s'", centerID))
	}

	included := map[string]bool{centerID: true}
	order := []string{centerID}
	frontier := []string{centerID}
	truncated := false

walk:
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []string
		for _, id := range frontier {
			for _, nb := range s.adjacency[id] {
				if included[nb.id] {
					continue
				}
				if limit > 0 && len(order) >= limit {
					truncated = true
					break walk
				}
				included[nb.id] = true
				order = append(order, nb.id)
				next = append(next, nb.id)
			}
		}
		frontier = next
	}

	graph := &raw.Graph{Nodes: make([]raw.Node, 0, len(order)), Truncated: truncated}
	for _, id := range order {
		graph.Nodes = append(graph.Nodes, s.nodes[id])
	}
	for _, e := range s.edges {
		if included[e.SourceID()] && included[e.TargetID()] {
			graph.Links = append(graph.Links, e)
		}
	}

	s.logger.Debug("Served subgraph from fixture",
		zap.String("centerId", centerID),
		zap.Int("depth", depth),
		zap.Int("nodes", len(graph.Nodes)),
		zap.Bool("truncated", truncated),
	)
	return graph, nil
}

// FindConnection implements ports.GraphDataSource. Paths are simple and come back
// shortest first; the search deepens one hop at a time and stops at maxPaths. Hops may
// follow an edge against its direction, which the path marks as reversed.
func (s *Source) FindConnection(ctx context.Context, fromID, toID string, maxHops int) (*raw.ConnectionResult, error) {
	for _, id := range []string{fromID, toID} {
		if _, ok := s.nodes[id]; !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("concept '%s'", id))
		}
	}

	found := [][]neighbor{}
	distance := s.distancesTo(toID, maxHops)
	if shortest, reachable := distance[fromID]; reachable && fromID != toID {
		for limit := shortest; limit <= maxHops && len(found) < maxPaths; limit++ {
			if err := s.collectPaths(ctx, fromID, toID, limit, distance, &found); err != nil {
				return nil, err
			}
		}
	}

	result := &raw.ConnectionResult{Paths: make([]raw.Path, 0, len(found))}
	for _, hops := range found {
		path := raw.Path{
			Nodes:         []raw.Node{s.nodes[fromID]},
			Relationships: make([]string, 0, len(hops)),
			Hops:          len(hops),
			Score:         1 / float64(len(hops)),
		}
		at := fromID
		for i, hop := range hops {
			edge := s.edges[hop.edge]
			path.Nodes = append(path.Nodes, s.nodes[hop.id])
			path.Relationships = append(path.Relationships, edge.RelType())
			if edge.SourceID() != at {
				if path.Reversed == nil {
					path.Reversed = make([]bool, len(hops))
				}
				path.Reversed[i] = true
			}
			at = hop.id
		}
		result.Paths = append(result.Paths, path)
	}
	result.Count = len(result.Paths)
	return result, nil
}

// distancesTo returns the hop distance of every node within maxHops of target
func (s *Source) distancesTo(target string, maxHops int) map[string]int {
	distance := map[string]int{target: 0}
	frontier := []string{target}
	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			for _, nb := range s.adjacency[id] {
				if _, seen := distance[nb.id]; seen {
					continue
				}
				distance[nb.id] = hop
				next = append(next, nb.id)
			}
		}
		frontier = next
	}
	return distance
}

// collectPaths appends simple paths of exactly limit hops until found holds maxPaths.
// A branch is cut as soon as the target is out of reach within the remaining hops.
func (s *Source) collectPaths(ctx context.Context, fromID, toID string, limit int, distance map[string]int, found *[][]neighbor) error {
	visited := map[string]bool{fromID: true}
	var trail []neighbor

	var walk func(at string) error
	walk = func(at string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if at == toID {
			if len(trail) == limit {
				*found = append(*found, append([]neighbor(nil), trail...))
			}
			return nil
		}
		for _, nb := range s.adjacency[at] {
			if len(*found) >= maxPaths {
				return nil
			}
			d, reachable := distance[nb.id]
			if visited[nb.id] || !reachable || len(trail)+1+d > limit {
				continue
			}
			visited[nb.id] = true
			trail = append(trail, nb)
			err := walk(nb.id)
			trail = trail[:len(trail)-1]
			visited[nb.id] = false
			if err != nil {
				return err
			}
		}
		return nil
	}
	return walk(fromID)
}

// GetVocabularyTypes implements ports.GraphDataSource
func (s *Source) GetVocabularyTypes(_ context.Context, opts ports.VocabularyOptions) (*raw.VocabularyTypes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &raw.VocabularyTypes{Types: make([]raw.VocabularyType, 0, len(s.vocabulary))}
	for _, t := range s.vocabulary {
		if !opts.IncludeInactive && !t.IsActive {
			continue
		}
		if opts.Category != "" && t.Category != opts.Category {
			continue
		}
		out.Types = append(out.Types, t)
		if opts.Limit > 0 && len(out.Types) == opts.Limit {
			break
		}
	}
	return out, nil
}

// RefreshVocabularyCategories implements ports.GraphDataSource by recomputing categories
// from edge annotations. OnlyComputed leaves declared categories alone.
func (s *Source) RefreshVocabularyCategories(_ context.Context, opts ports.RefreshOptions) error {
	vocabulary := s.computeVocabulary(!opts.OnlyComputed)

	s.mu.Lock()
	s.vocabulary = vocabulary
	s.mu.Unlock()

	s.logger.Info("Recomputed vocabulary categories",
		zap.Int("types", len(vocabulary)),
		zap.Bool("onlyComputed", opts.OnlyComputed),
	)
	return nil
}

// Ping implements ports.HealthChecker
func (s *Source) Ping(context.Context) error {
	return nil
}

// computeVocabulary derives one entry per relationship type. The category is the most
// common edge annotation; a tie or disagreement marks it ambiguous. Declared categories
// win unless overrideDeclared is set.
func (s *Source) computeVocabulary(overrideDeclared bool) []raw.VocabularyType {
	type tally struct {
		edges      int
		categories map[string]int
	}
	tallies := make(map[string]*tally)
	for _, e := range s.edges {
		rel := e.RelType()
		if rel == "" {
			continue
		}
		t, ok := tallies[rel]
		if !ok {
			t = &tally{categories: make(map[string]int)}
			tallies[rel] = t
		}
		t.edges++
		if e.Category != "" {
			t.categories[e.Category]++
		}
	}
	for rel := range s.declared {
		if _, ok := tallies[rel]; !ok {
			tallies[rel] = &tally{categories: map[string]int{}}
		}
	}

	out := make([]raw.VocabularyType, 0, len(tallies))
	for rel, t := range tallies {
		vt := raw.VocabularyType{RelationshipType: rel, EdgeCount: t.edges, IsActive: true}

		annotated, best, bestCount, tied := 0, "", 0, false
		for category, count := range t.categories {
			annotated += count
			switch {
			case count > bestCount:
				best, bestCount, tied = category, count, false
			case count == bestCount:
				tied = true
				if category < best {
					best = category
				}
			}
		}
		if annotated > 0 {
			vt.Category = best
			vt.CategoryConfidence = float64(bestCount) / float64(annotated)
			vt.CategoryAmbiguous = tied || len(t.categories) > 1
		}

		if declared, ok := s.declared[rel]; ok {
			vt.IsActive = !declared.Inactive
			if declared.Category != "" && (!overrideDeclared || annotated == 0) {
				vt.Category = declared.Category
				vt.CategoryConfidence = 1
				vt.CategoryAmbiguous = false
			}
		}
		out = append(out, vt)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EdgeCount != out[j].EdgeCount {
			return out[i].EdgeCount > out[j].EdgeCount
		}
		return out[i].RelationshipType < out[j].RelationshipType
	})
	return out
}
