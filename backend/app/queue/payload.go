package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"compliance-feed/backend/app/history"
)

// PrivacyCommand is a command as it sits in the live queue for one target.
type PrivacyCommand struct {
	CommandID           history.CommandID
	AgentID             history.AgentID
	AssetGroupID        history.AssetGroupID
	AssetGroupQualifier string
	CommandType         history.CommandType
	Subject             history.Subject
	Timestamp           time.Time
	NextVisibleTime     time.Time
	DataTypes           []string
	CloudInstance       string
}

type privacyCommandJSON struct {
	CommandID           history.CommandID    `json:"commandId"`
	AgentID             history.AgentID      `json:"agentId"`
	AssetGroupID        history.AssetGroupID `json:"assetGroupId"`
	AssetGroupQualifier string               `json:"assetGroupQualifier,omitempty"`
	CommandType         history.CommandType  `json:"commandType"`
	Subject             json.RawMessage      `json:"subject"`
	Timestamp           time.Time            `json:"timestamp"`
	NextVisibleTime     time.Time            `json:"nextVisibleTime,omitempty"`
	DataTypes           []string             `json:"dataTypes,omitempty"`
	CloudInstance       string               `json:"cloudInstance,omitempty"`
}

func (c PrivacyCommand) MarshalJSON() ([]byte, error) {
	subject, err := history.MarshalSubject(c.Subject)
	if err != nil {
		return nil, err
	}
	return json.Marshal(privacyCommandJSON{
		CommandID:           c.CommandID,
		AgentID:             c.AgentID,
		AssetGroupID:        c.AssetGroupID,
		AssetGroupQualifier: c.AssetGroupQualifier,
		CommandType:         c.CommandType,
		Subject:             subject,
		Timestamp:           c.Timestamp,
		NextVisibleTime:     c.NextVisibleTime,
		DataTypes:           c.DataTypes,
		CloudInstance:       c.CloudInstance,
	})
}

func (c *PrivacyCommand) UnmarshalJSON(b []byte) error {
	var raw privacyCommandJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	subject, err := history.UnmarshalSubject(raw.Subject)
	if err != nil {
		return err
	}
	*c = PrivacyCommand{
		CommandID:           raw.CommandID,
		AgentID:             raw.AgentID,
		AssetGroupID:        raw.AssetGroupID,
		AssetGroupQualifier: raw.AssetGroupQualifier,
		CommandType:         raw.CommandType,
		Subject:             subject,
		Timestamp:           raw.Timestamp,
		NextVisibleTime:     raw.NextVisibleTime,
		DataTypes:           raw.DataTypes,
		CloudInstance:       raw.CloudInstance,
	}
	return nil
}

// Encode renders the command for a caller. Multi-tenant subjects are
// downgraded to their plain AAD form unless multiTenant is set.
func (c PrivacyCommand) Encode(multiTenant bool) (json.RawMessage, error) {
	out := c
	if s, ok := c.Subject.(history.AADSubject2); ok && !multiTenant {
		out.Subject = s.AADSubject
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", c.CommandID, err)
	}
	return b, nil
}
