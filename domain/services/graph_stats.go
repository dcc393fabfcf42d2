package services

import (
	"sort"

	"kgexplorer/domain/core/aggregates"
)

// GraphStats contains graph statistics for the stats panel and legend
type GraphStats struct {
	NodeCount     int          `json:"nodeCount"`
	EdgeCount     int          `json:"edgeCount"`
	ClusterCount  int          `json:"clusterCount"`
	DanglingEdges int          `json:"danglingEdges"`
	Density       float64      `json:"density"`
	Groups        []LabelCount `json:"groups"`
	EdgeTypes     []LabelCount `json:"edgeTypes"`
}

// LabelCount pairs a group or edge type with its frequency
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ComputeGraphStats summarizes a graph. A nil graph yields zero stats.
func ComputeGraphStats(g *aggregates.GraphState) GraphStats {
	stats := GraphStats{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Groups:    []LabelCount{},
		EdgeTypes: []LabelCount{},
	}
	if g == nil {
		return stats
	}

	// Calculate graph density if we have nodes
	if stats.NodeCount > 1 {
		maxPossibleEdges := stats.NodeCount * (stats.NodeCount - 1) / 2
		stats.Density = float64(stats.EdgeCount) / float64(maxPossibleEdges)
	}

	stats.ClusterCount = len(g.GetClusters())
	stats.DanglingEdges = len(g.DanglingEdges())

	groups := make(map[string]int)
	for _, n := range g.Nodes {
		group := n.Group
		if group == "" {
			group = "unknown"
		}
		groups[group]++
	}
	stats.Groups = sortedCounts(groups)

	types := make(map[string]int)
	for _, e := range g.Links {
		types[string(e.Type)]++
	}
	stats.EdgeTypes = sortedCounts(types)

	return stats
}

// sortedCounts orders by count descending, then label
func sortedCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
