package main

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"kgexplorer/application/services"
	"kgexplorer/domain/core/aggregates"
)

var (
	title  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed, color.Bold)
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visibleLen is the printed width of s with color codes removed
func visibleLen(s string) int {
	return utf8.RuneCountInString(ansiEscape.ReplaceAllString(s, ""))
}

func pad(s string, width int) string {
	if n := visibleLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable prints left-aligned columns under a dimmed header
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		subtle.Fprintln(w, "  (none)")
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	var header, sep strings.Builder
	for i, h := range headers {
		header.WriteString("  " + pad(h, widths[i]))
		sep.WriteString("  " + strings.Repeat("─", widths[i]))
	}
	subtle.Fprintln(w, header.String())
	subtle.Fprintln(w, sep.String())

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString("  " + pad(cell, widths[i]))
			}
		}
		fmt.Fprintln(w, line.String())
	}
}

// printGraph prints the session summary followed by node and edge tables
func printGraph(w io.Writer, snap services.SessionSnapshot, graph *aggregates.GraphState) {
	title.Fprintf(w, "%s\n", snap.Params.String())
	if snap.Truncated {
		warn.Fprintln(w, "result truncated at the subgraph limit")
	}
	if graph == nil || graph.IsEmpty() {
		subtle.Fprintln(w, "no concepts found")
		return
	}

	fmt.Fprintf(w, "%s nodes, %s edges, %d clusters, density %.3f\n\n",
		good.Sprint(snap.Stats.NodeCount),
		good.Sprint(snap.Stats.EdgeCount),
		snap.Stats.ClusterCount,
		snap.Stats.Density,
	)

	nodeRows := make([][]string, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		nodeRows = append(nodeRows, []string{n.ID, n.Label, n.Group})
	}
	title.Fprintln(w, "Nodes")
	printTable(w, []string{"ID", "LABEL", "GROUP"}, nodeRows)

	edgeRows := make([][]string, 0, len(graph.Links))
	for _, e := range graph.Links {
		edgeRows = append(edgeRows, []string{
			e.SourceID,
			string(e.Type),
			e.TargetID,
			fmt.Sprintf("%.2f", e.Confidence),
			e.Category,
		})
	}
	fmt.Fprintln(w)
	title.Fprintln(w, "Edges")
	printTable(w, []string{"SOURCE", "TYPE", "TARGET", "CONFIDENCE", "CATEGORY"}, edgeRows)
}
