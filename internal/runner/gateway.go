package runner

import "go.uber.org/zap"

// EngineGateway hands a persisted test plan to the load-testing engine for
// execution. Generation never depends on execution results; the gateway is
// strictly one-way.
type EngineGateway interface {
	// Start submits the test plan file at the given path.
	Start(planPath string) error
}

// LogGateway acknowledges the handoff without executing anything. Actual
// execution (and any timeout or cancellation policy) belongs to the
// external engine invocation, not to this layer.
type LogGateway struct {
	log *zap.Logger
}

// NewLogGateway creates the gateway.
func NewLogGateway(log *zap.Logger) *LogGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogGateway{log: log}
}

// Start implements EngineGateway.
func (g *LogGateway) Start(planPath string) error {
	g.log.Info("test plan handed to execution engine",
		zap.String("path", planPath))
	return nil
}
