package agentmap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"compliance-feed/backend/app/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	agentA = "6b2e1f0e-8d1f-4a59-9e3a-0d6a1c2b3f41"
	groupA = "0f3c2a9d-5e4b-4c1a-8b7e-2d9f6a5c4b31"
	groupB = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

const mapV1 = `
version: 1
agents:
  - id: ` + agentA + `
    name: mail
    multi_tenant_subjects: true
    asset_groups:
      - id: ` + groupA + `
        qualifier: "AssetType=AzureBlob;AccountName=mail"
`

const mapV2 = `
version: 2
agents:
  - id: ` + agentA + `
    name: mail
    asset_groups:
      - id: ` + groupA + `
        qualifier: "AssetType=AzureBlob;AccountName=mail"
      - id: ` + groupB + `
        qualifier: "AssetType=AzureBlob;AccountName=archive"
`

func mustAgent(t *testing.T) history.AgentID {
	id, err := history.ParseAgentID(agentA)
	require.NoError(t, err)
	return id
}

func mustGroup(t *testing.T, s string) history.AssetGroupID {
	id, err := history.ParseAssetGroupID(s)
	require.NoError(t, err)
	return id
}

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(mapV1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, snap.Version)

	agent, ok := snap.Lookup(mustAgent(t))
	require.True(t, ok)
	assert.Equal(t, "mail", agent.Name)
	assert.True(t, agent.MultiTenantSubjects)

	g, ok := agent.LookupAssetGroup(mustGroup(t, groupA))
	require.True(t, ok)
	assert.Equal(t, "AssetType=AzureBlob;AccountName=mail", g.Qualifier)

	_, ok = agent.LookupAssetGroup(mustGroup(t, groupB))
	assert.False(t, ok)

	_, ok = snap.Lookup(history.AgentID{})
	assert.False(t, ok)
}

func TestParseSnapshotRejectsBadIDs(t *testing.T) {
	_, err := ParseSnapshot([]byte("agents:\n  - id: nope\n"))
	assert.Error(t, err)

	_, err = ParseSnapshot([]byte("agents:\n  - id: " + agentA + "\n    asset_groups:\n      - id: nope\n"))
	assert.Error(t, err)

	_, err = ParseSnapshot([]byte("agents: [unterminated"))
	assert.Error(t, err)

	_, err = ParseSnapshot([]byte("  \n"))
	assert.Error(t, err)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestFileSourceWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mapV1), 0o644))

	src, err := NewFileSource(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.Snapshot().Version)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher a moment to register before writing
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("agents: [unterminated"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 1, src.Snapshot().Version, "invalid file must not replace the snapshot")

	require.NoError(t, os.WriteFile(path, []byte(mapV2), 0o644))
	require.Eventually(t, func() bool { return src.Snapshot().Version == 2 }, 3*time.Second, 20*time.Millisecond)

	agent, ok := src.Lookup(mustAgent(t))
	require.True(t, ok)
	assert.False(t, agent.MultiTenantSubjects)
	_, ok = agent.LookupAssetGroup(mustGroup(t, groupB))
	assert.True(t, ok)
}
