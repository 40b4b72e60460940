// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextAgentIDKey is the gin context key for the acting agent's ID.
const ContextAgentIDKey = "agentID"

// agentIDHeader carries the authenticated agent id set by the upstream
// authentication layer. Authentication itself is an external collaborator;
// this process only consumes its result.
const agentIDHeader = "X-Agent-ID"

// Identity represents the acting agent's identity.
// This abstracts identity extraction from the web framework, allowing
// handlers and services to attribute writes without depending on Gin.
type Identity interface {
	// AgentID returns the acting agent's ID.
	AgentID() uuid.UUID
	// IsAuthenticated returns true if an agent identity was provided.
	IsAuthenticated() bool
}

type identity struct {
	agentID       uuid.UUID
	authenticated bool
}

func (i *identity) AgentID() uuid.UUID {
	return i.agentID
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// IdentityFromHeader returns middleware that extracts the acting agent id
// from the trusted auth proxy header, when present.
func IdentityFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(agentIDHeader); raw != "" {
			if parsed, err := uuid.Parse(raw); err == nil {
				c.Set(ContextAgentIDKey, parsed)
			}
		}
		c.Next()
	}
}

// IdentityFromContext builds an Identity from gin context values.
func IdentityFromContext(c *gin.Context) Identity {
	value, ok := c.Get(ContextAgentIDKey)
	if !ok {
		return &identity{}
	}
	agentID, ok := value.(uuid.UUID)
	if !ok {
		return &identity{}
	}
	return &identity{agentID: agentID, authenticated: true}
}
