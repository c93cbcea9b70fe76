package mocks

import (
	"context"

	"github.com/SoroushMB/DNS-Master/internal/model"
)

// Prober allows mocking a prober.
type Prober struct {
	MockProbe func(ctx context.Context, target model.Target) *model.ProbeResult
}

var _ model.Prober = &Prober{}

// Probe calls MockProbe.
func (p *Prober) Probe(ctx context.Context, target model.Target) *model.ProbeResult {
	return p.MockProbe(ctx, target)
}
