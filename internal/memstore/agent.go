package memstore

import (
	"context"
	"fmt"

	"github.com/gorilla/securecookie"
)

// Agent is a services.AgentService backed by signed session cookies,
// generalizing the teacher's auth.go `userCookie`/`userCookieSet` pair
// (which stored `{"user": <webid>}` directly in a securecookie-encoded
// "Session" cookie) into an opaque-session-id-to-agent-IRI lookup, since
// spec.md §6 defines `AgentService.asAgent` as converting an opaque
// userID rather than decoding a specific cookie wire format itself.
type Agent struct {
	codec *securecookie.SecureCookie
}

// NewAgent builds an Agent service with a freshly generated signing key
// pair, mirroring the teacher's `Server.cookie` field (itself
// securecookie.New(hashKey, blockKey)).
func NewAgent() *Agent {
	hashKey := securecookie.GenerateRandomKey(64)
	blockKey := securecookie.GenerateRandomKey(32)
	return &Agent{codec: securecookie.New(hashKey, blockKey)}
}

// Register signs a new session for agent and returns the opaque token an
// AgentService.AsAgent call later resolves back to that agent.
func (a *Agent) Register(agentIRI string) (string, error) {
	values := map[string]string{"agent": agentIRI}
	token, err := a.codec.Encode("session", values)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (a *Agent) AsAgent(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "http://xmlns.com/foaf/0.1/Agent", nil
	}
	values := make(map[string]string)
	if err := a.codec.Decode("session", userID, &values); err != nil {
		return "", fmt.Errorf("memstore: invalid session token: %w", err)
	}
	agent, ok := values["agent"]
	if !ok {
		return "", fmt.Errorf("memstore: session token carries no agent")
	}
	return agent, nil
}
