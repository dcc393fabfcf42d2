package explorers

import (
	"go.uber.org/zap"

	"kgexplorer/application/explorers"
)

// DefaultExplorerType is selected for new sessions
const DefaultExplorerType = Force2DType

// Builtins returns the explorers shipped with the service
func Builtins() []explorers.Explorer {
	return []explorers.Explorer{
		NewForce2DExplorer(),
		NewForce3DExplorer(),
		NewAdjacencyMatrixExplorer(),
	}
}

// NewDefaultRegistry creates a registry holding the built-in explorers
func NewDefaultRegistry(logger *zap.Logger) *explorers.Registry {
	return explorers.NewRegistry(logger).MustRegister(Builtins()...)
}
