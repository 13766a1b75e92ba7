package mcp

import (
	"github.com/custodia-labs/kbsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// KB provides search, status and trigger.
	KB driving.KnowledgeBase

	// AllowTrigger exposes the kb_trigger tool.
	AllowTrigger bool
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.KB == nil {
		return ErrMissingKnowledgeBase
	}
	return nil
}
