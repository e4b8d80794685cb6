package stages

import (
	"time"

	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/scoring"
	"github.com/spigell/recruiter/internal/workflow"
)

// Options configures the runners. Zero values fall back to defaults.
type Options struct {
	// Timeout applies to every stage without its own entry in Timeouts.
	Timeout time.Duration `mapstructure:"timeout"`
	// Timeouts is keyed by stage name.
	Timeouts     map[string]time.Duration `mapstructure:"timeouts"`
	MaxLogLength int                      `mapstructure:"max-log-length"`

	Logger *zap.Logger `mapstructure:"-" json:"-"`
}

func (o Options) timeoutFor(stage workflow.Stage) time.Duration {
	if d, ok := o.Timeouts[string(stage)]; ok && d > 0 {
		return d
	}
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

// Build returns runners for every stage in execution order.
func Build(capability ai.Capability, engine *scoring.Engine, source TextSource, opts Options) []workflow.Runner {
	return []workflow.Runner{
		NewExtraction(capability, source, opts),
		NewAnalysis(capability, opts),
		NewMatching(engine, opts),
		NewScreening(capability, opts),
		NewRecommendation(capability, opts),
	}
}
