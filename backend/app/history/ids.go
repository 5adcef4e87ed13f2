package history

import (
	"fmt"

	"github.com/google/uuid"
)

// CommandID identifies one compliance command across all of its targets.
type CommandID uuid.UUID

// AgentID identifies the agent receiving a command.
type AgentID uuid.UUID

// AssetGroupID identifies an asset group under an agent.
type AssetGroupID uuid.UUID

func ParseCommandID(s string) (CommandID, error) {
	u, err := parseID("command", s)
	return CommandID(u), err
}

func ParseAgentID(s string) (AgentID, error) {
	u, err := parseID("agent", s)
	return AgentID(u), err
}

func ParseAssetGroupID(s string) (AssetGroupID, error) {
	u, err := parseID("asset group", s)
	return AssetGroupID(u), err
}

func parseID(kind, s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed %s id %q: %w", kind, s, err)
	}
	return u, nil
}

func (id CommandID) String() string { return uuid.UUID(id).String() }
func (id CommandID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

func (id CommandID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *CommandID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id AgentID) String() string { return uuid.UUID(id).String() }
func (id AgentID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

func (id AgentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *AgentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id AssetGroupID) String() string { return uuid.UUID(id).String() }
func (id AssetGroupID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

func (id AssetGroupID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *AssetGroupID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// TargetKey is the fan-out unit: one asset group of one agent.
type TargetKey struct {
	AgentID      AgentID
	AssetGroupID AssetGroupID
}

// Valid reports whether both halves of the key are set.
func (k TargetKey) Valid() bool {
	return !k.AgentID.IsZero() && !k.AssetGroupID.IsZero()
}

func (k TargetKey) String() string {
	return k.AgentID.String() + "/" + k.AssetGroupID.String()
}
