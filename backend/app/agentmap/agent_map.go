package agentmap

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"compliance-feed/backend/app/history"

	"gopkg.in/yaml.v3"
)

// Map resolves agents. Lookups never block and never fail; a miss is
// reported by the boolean.
type Map interface {
	Lookup(id history.AgentID) (*AgentInfo, bool)
}

type AssetGroupInfo struct {
	ID        history.AssetGroupID `json:"id"`
	Qualifier string               `json:"qualifier"`
}

type AgentInfo struct {
	ID   history.AgentID `json:"id"`
	Name string          `json:"name,omitempty"`
	// MultiTenantSubjects is set for agents that accept AAD2 subjects.
	MultiTenantSubjects bool                                    `json:"multiTenantSubjects"`
	AssetGroups         map[history.AssetGroupID]AssetGroupInfo `json:"assetGroups"`
}

func (a *AgentInfo) LookupAssetGroup(id history.AssetGroupID) (AssetGroupInfo, bool) {
	g, ok := a.AssetGroups[id]
	return g, ok
}

// Snapshot is an immutable agent map at one data set version.
type Snapshot struct {
	Version int64
	agents  map[history.AgentID]*AgentInfo
}

func NewSnapshot(version int64, agents ...*AgentInfo) *Snapshot {
	s := &Snapshot{Version: version, agents: make(map[history.AgentID]*AgentInfo, len(agents))}
	for _, a := range agents {
		s.agents[a.ID] = a
	}
	return s
}

func (s *Snapshot) Lookup(id history.AgentID) (*AgentInfo, bool) {
	a, ok := s.agents[id]
	return a, ok
}

// Agents returns every agent ordered by id.
func (s *Snapshot) Agents() []*AgentInfo {
	out := make([]*AgentInfo, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

type fileDocument struct {
	Version int64 `yaml:"version"`
	Agents  []struct {
		ID                  string `yaml:"id"`
		Name                string `yaml:"name"`
		MultiTenantSubjects bool   `yaml:"multi_tenant_subjects"`
		AssetGroups         []struct {
			ID        string `yaml:"id"`
			Qualifier string `yaml:"qualifier"`
		} `yaml:"asset_groups"`
	} `yaml:"agents"`
}

// ParseSnapshot decodes the YAML agent map document.
func ParseSnapshot(b []byte) (*Snapshot, error) {
	// a truncated file mid-write reads as empty
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, errors.New("parse agent map: empty document")
	}
	var doc fileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse agent map: %w", err)
	}
	agents := make([]*AgentInfo, 0, len(doc.Agents))
	for _, a := range doc.Agents {
		id, err := history.ParseAgentID(a.ID)
		if err != nil {
			return nil, fmt.Errorf("agent map: %w", err)
		}
		info := &AgentInfo{
			ID:                  id,
			Name:                a.Name,
			MultiTenantSubjects: a.MultiTenantSubjects,
			AssetGroups:         make(map[history.AssetGroupID]AssetGroupInfo, len(a.AssetGroups)),
		}
		for _, g := range a.AssetGroups {
			gid, err := history.ParseAssetGroupID(g.ID)
			if err != nil {
				return nil, fmt.Errorf("agent map: agent %s: %w", a.ID, err)
			}
			info.AssetGroups[gid] = AssetGroupInfo{ID: gid, Qualifier: g.Qualifier}
		}
		agents = append(agents, info)
	}
	return NewSnapshot(doc.Version, agents...), nil
}
