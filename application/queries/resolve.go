package queries

import (
	"fmt"

	"kgexplorer/application/queries/bus"
	"kgexplorer/domain/config"
	"kgexplorer/domain/core/valueobjects"
)

// ResolveQuery maps search params to the single query that fetches them.
// Idle params resolve to a nil query. Unset depth and hop counts take the domain defaults.
func ResolveQuery(params valueobjects.SearchParams, cfg *config.DomainConfig) (bus.Query, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	switch params.Mode {
	case valueobjects.ModeIdle:
		return nil, nil

	case valueobjects.ModeConcept:
		return ConceptQuery{
			ConceptID: params.ConceptID,
			Depth:     cfg.ConceptDepth,
			Limit:     cfg.SubgraphLimit,
		}, nil

	case valueobjects.ModeNeighborhood:
		depth := params.Depth
		if depth <= 0 {
			depth = cfg.DefaultNeighborhoodDepth
		}
		return SubgraphQuery{
			CenterID: params.CenterConceptID,
			Depth:    depth,
			Limit:    cfg.SubgraphLimit,
		}, nil

	case valueobjects.ModePath:
		maxHops := params.MaxHops
		if maxHops <= 0 {
			maxHops = cfg.DefaultMaxHops
		}
		return FindPathQuery{
			FromID:  params.FromConceptID,
			ToID:    params.ToConceptID,
			MaxHops: maxHops,
			Depth:   params.Depth,
			Limit:   cfg.SubgraphLimit,
		}, nil

	default:
		return nil, fmt.Errorf("unknown search mode %q", params.Mode)
	}
}
