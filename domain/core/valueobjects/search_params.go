package valueobjects

import (
	"fmt"
)

// SearchMode selects which kind of query a SearchParams value describes
type SearchMode string

const (
	// ModeIdle means no active query
	ModeIdle         SearchMode = ""
	ModeConcept      SearchMode = "concept"
	ModeNeighborhood SearchMode = "neighborhood"
	ModePath         SearchMode = "path"
)

// String returns the mode name, "idle" for the empty mode
func (m SearchMode) String() string {
	if m == ModeIdle {
		return "idle"
	}
	return string(m)
}

// LoadMode controls whether a fetch replaces or extends the canonical graph
type LoadMode string

const (
	LoadModeClean LoadMode = "clean"
	LoadModeAdd   LoadMode = "add"
)

// SearchParams is a declarative description of what to query.
// It is a tagged union over Mode: only the fields of the active mode are meaningful,
// and Normalize clears the others. The zero value is the idle state.
type SearchParams struct {
	Mode SearchMode `json:"mode" validate:"omitempty,oneof=concept neighborhood path"`

	// concept
	ConceptID string `json:"conceptId,omitempty" validate:"required_if=Mode concept"`

	// neighborhood
	CenterConceptID string `json:"centerConceptId,omitempty" validate:"required_if=Mode neighborhood"`

	// path
	FromConceptID string `json:"fromConceptId,omitempty" validate:"required_if=Mode path"`
	ToConceptID   string `json:"toConceptId,omitempty" validate:"required_if=Mode path"`
	MaxHops       int    `json:"maxHops,omitempty" validate:"gte=0"`

	// neighborhood hop depth, or path enrichment depth (0 = no enrichment)
	Depth int `json:"depth,omitempty" validate:"gte=0"`

	LoadMode LoadMode `json:"loadMode,omitempty" validate:"omitempty,oneof=clean add"`
}

// IdleSearch returns params describing no active query
func IdleSearch() SearchParams {
	return SearchParams{}
}

// ConceptSearch returns params for a 1-hop lookup around a concept
func ConceptSearch(conceptID string, loadMode LoadMode) SearchParams {
	return SearchParams{
		Mode:      ModeConcept,
		ConceptID: conceptID,
		LoadMode:  loadMode,
	}
}

// NeighborhoodSearch returns params for a depth-bounded subgraph around a concept
func NeighborhoodSearch(centerConceptID string, depth int, loadMode LoadMode) SearchParams {
	return SearchParams{
		Mode:            ModeNeighborhood,
		CenterConceptID: centerConceptID,
		Depth:           depth,
		LoadMode:        loadMode,
	}
}

// PathSearch returns params for path discovery between two concepts.
// A positive depth requests neighborhood enrichment around the best path.
func PathSearch(fromConceptID, toConceptID string, maxHops, depth int, loadMode LoadMode) SearchParams {
	return SearchParams{
		Mode:          ModePath,
		FromConceptID: fromConceptID,
		ToConceptID:   toConceptID,
		MaxHops:       maxHops,
		Depth:         depth,
		LoadMode:      loadMode,
	}
}

// IsIdle reports whether no query is active
func (p SearchParams) IsIdle() bool {
	return p.Mode == ModeIdle
}

// IsEnrichedPath reports whether a path query requests neighborhood enrichment
func (p SearchParams) IsEnrichedPath() bool {
	return p.Mode == ModePath && p.Depth > 0
}

// EffectiveLoadMode returns the load mode, defaulting to clean
func (p SearchParams) EffectiveLoadMode() LoadMode {
	if p.LoadMode == "" {
		return LoadModeClean
	}
	return p.LoadMode
}

// Normalize returns a copy where only the active mode's fields are set.
// An unrecognized mode is kept as is and carries no other fields.
func (p SearchParams) Normalize() SearchParams {
	out := SearchParams{Mode: p.Mode, LoadMode: p.EffectiveLoadMode()}

	switch p.Mode {
	case ModeConcept:
		out.ConceptID = p.ConceptID
	case ModeNeighborhood:
		out.CenterConceptID = p.CenterConceptID
		out.Depth = p.Depth
	case ModePath:
		out.FromConceptID = p.FromConceptID
		out.ToConceptID = p.ToConceptID
		out.MaxHops = p.MaxHops
		out.Depth = p.Depth
	case ModeIdle:
		return SearchParams{}
	default:
		// Unknown modes survive so validation can reject them
		return SearchParams{Mode: p.Mode, LoadMode: p.LoadMode}
	}

	return out
}

// WithLoadMode returns a copy with a different load mode
func (p SearchParams) WithLoadMode(mode LoadMode) SearchParams {
	p.LoadMode = mode
	return p
}

// FocusID returns the concept the query is centered on, if any
func (p SearchParams) FocusID() string {
	switch p.Mode {
	case ModeConcept:
		return p.ConceptID
	case ModeNeighborhood:
		return p.CenterConceptID
	case ModePath:
		return p.FromConceptID
	default:
		return ""
	}
}

// String returns a compact description used in logs and cache keys
func (p SearchParams) String() string {
	switch p.Mode {
	case ModeConcept:
		return fmt.Sprintf("concept(%s)/%s", p.ConceptID, p.EffectiveLoadMode())
	case ModeNeighborhood:
		return fmt.Sprintf("neighborhood(%s,depth=%d)/%s", p.CenterConceptID, p.Depth, p.EffectiveLoadMode())
	case ModePath:
		return fmt.Sprintf("path(%s->%s,maxHops=%d,depth=%d)/%s",
			p.FromConceptID, p.ToConceptID, p.MaxHops, p.Depth, p.EffectiveLoadMode())
	default:
		return "idle"
	}
}
