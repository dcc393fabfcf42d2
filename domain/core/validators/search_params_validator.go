package validators

import (
	"fmt"

	"kgexplorer/domain/config"
	"kgexplorer/domain/core/valueobjects"
	"kgexplorer/pkg/errors"
	"kgexplorer/pkg/utils"
)

// SearchParamsValidator validates search parameters against struct rules and domain limits
type SearchParamsValidator struct {
	config *config.DomainConfig
}

// NewSearchParamsValidator creates a validator bound to the domain limits
func NewSearchParamsValidator(cfg *config.DomainConfig) *SearchParamsValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SearchParamsValidator{config: cfg}
}

// Validate returns a validation AppError listing every invalid field, or nil.
// Idle params are always valid.
func (v *SearchParamsValidator) Validate(params valueobjects.SearchParams) error {
	validationErrors := utils.CollectStructErrors(params)
	if validationErrors.HasErrors() {
		return validationErrors.ToAppError()
	}

	if params.IsIdle() {
		return nil
	}

	switch params.Mode {
	case valueobjects.ModeNeighborhood:
		v.validateDepth(validationErrors, params.Depth)
	case valueobjects.ModePath:
		if params.FromConceptID == params.ToConceptID {
			validationErrors.Add("toConceptId", "must differ from fromConceptId")
		}
		if params.MaxHops > v.config.MaxHopsLimit {
			validationErrors.Add("maxHops", fmt.Sprintf("must be at most %d", v.config.MaxHopsLimit))
		}
		v.validateDepth(validationErrors, params.Depth)
	}

	if validationErrors.HasErrors() {
		return validationErrors.ToAppError()
	}
	return nil
}

// IsValid reports whether params pass validation
func (v *SearchParamsValidator) IsValid(params valueobjects.SearchParams) bool {
	return v.Validate(params) == nil
}

func (v *SearchParamsValidator) validateDepth(validationErrors *errors.ValidationErrors, depth int) {
	if depth > v.config.MaxDepth {
		validationErrors.Add("depth", fmt.Sprintf("must be at most %d", v.config.MaxDepth))
	}
}
