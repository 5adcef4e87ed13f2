package initialize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"compliance-feed/backend/app/db"
	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/history"
	"compliance-feed/backend/app/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAgent = "6b2e1f0e-8d1f-4a59-9e3a-0d6a1c2b3f41"
	testGroup = "0f3c2a9d-5e4b-4c1a-8b7e-2d9f6a5c4b31"
)

// writeTestConfig writes an agent map and a config pointing at a fresh
// in-memory sqlite database, and returns the config path and the DSN.
func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	agentsPath := filepath.Join(dir, "agents.yaml")
	require.NoError(t, os.WriteFile(agentsPath, []byte(`
version: 3
agents:
  - id: `+testAgent+`
    name: mail
    asset_groups:
      - id: `+testGroup+`
        qualifier: "AssetType=AzureBlob;AccountName=mail"
`), 0o644))

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
backend:
  db:
    driver: sqlite
    path: "%s"
  agentmap:
    path: %s
  auth:
    trusted_roles: [admin]
    bootstrap_admin:
      username: admin
      password: admin-pass
  log:
    level: error
`, dsn, agentsPath)), 0o644))
	return cfgPath, dsn
}

func buildTestApp(t *testing.T) *App {
	t.Helper()
	cfgPath, dsn := writeTestConfig(t)

	// the shared in-memory database lives as long as this connection
	gdb, err := db.Connect(db.Config{Driver: "sqlite", Path: dsn})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	app, err := Build(context.Background(), cfgPath)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestBuildLeavesSchemaAlone(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	app, err := Build(context.Background(), cfgPath)
	require.NoError(t, err)
	defer app.Close()

	m := app.DB.Migrator()
	assert.False(t, m.HasTable(&models.CommandHistory{}))
	assert.False(t, m.HasTable(&models.CommandAudit{}))
	assert.False(t, m.HasTable(&models.CommandAssetGroupStatus{}))
	assert.False(t, m.HasTable(&models.Operator{}))
}

func seedRecord(t *testing.T, app *App) string {
	t.Helper()
	subject, err := history.MarshalSubject(history.MSASubject{Puid: 42})
	require.NoError(t, err)
	id := uuid.NewString()
	total, completed := int64(2), int64(1)
	delivered := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, app.DB.Create(&models.CommandHistory{
		CommandID:             id,
		SubjectType:           string(history.SubjectMSA),
		SubjectKey:            "42",
		Subject:               string(subject),
		CommandType:           string(history.CommandDelete),
		CreatedTime:           delivered,
		TotalCommandCount:     &total,
		CompletedCommandCount: &completed,
		Requester:             "portal",
		Context:               "ticket",
		RawCommand:            `{"RequestType":"Delete","PrivacyDataType":"BrowsingHistory"}`,
		QueueStorageType:      string(history.QueueStorageDocument),
	}).Error)
	require.NoError(t, app.DB.Create(&models.CommandAssetGroupStatus{
		CommandID:    id,
		AgentID:      testAgent,
		AssetGroupID: testGroup,
		// delivered through a shard this process has no client for
		IngestionTime:  &delivered,
		StorageMoniker: "shard-9",
	}).Error)
	return id
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	body, _ := json.Marshal(dto.LoginRequest{Username: "admin", Password: "admin-pass"})
	resp, err := http.Post(srv.URL+"/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok dto.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.True(t, tok.Trusted)
	assert.Equal(t, "admin", tok.Role)
	return tok.AccessToken
}

func get(t *testing.T, srv *httptest.Server, token, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEndToEnd(t *testing.T) {
	app := buildTestApp(t)
	id := seedRecord(t, app)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/status/commandid/" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := login(t, srv)

	t.Run("status by id", func(t *testing.T) {
		resp := get(t, srv, token, "/debug/status/commandid/"+id+"?redact=false")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body dto.CommandStatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "portal", body.Requester)
		assert.Equal(t, []string{"BrowsingHistory"}, body.DataTypes)
		assert.InDelta(t, 0.5, body.CompletionSuccessRate, 1e-9)
		require.Len(t, body.AssetGroupStatuses, 1)
		assert.Equal(t, "AssetType=AzureBlob;AccountName=mail", body.AssetGroupStatuses[0].AssetGroupQualifier)
		assert.Equal(t, "Unknown", body.AssetGroupStatuses[0].IngestionActionTaken)
	})

	t.Run("status absent", func(t *testing.T) {
		resp := get(t, srv, token, "/debug/status/commandid/"+uuid.NewString())
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("status malformed id", func(t *testing.T) {
		resp := get(t, srv, token, "/debug/status/commandid/nope")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("query by subject", func(t *testing.T) {
		resp := get(t, srv, token, "/commandstatus/query?subjectType=MSA&subjectId=42&commandTypes=Delete")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body []dto.CommandStatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Redacted", body[0].Requester)
		assert.Empty(t, body[0].AssetGroupStatuses)
	})

	t.Run("query bad command type", func(t *testing.T) {
		resp := get(t, srv, token, "/commandstatus/query?commandTypes=Delete,Obliterate")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("resolve not applicable", func(t *testing.T) {
		resp := get(t, srv, token, fmt.Sprintf("/debug/querycommand/%s/%s/%s", id, testAgent, uuid.NewString()))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body dto.QueryCommandResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "CommandNotApplicable", body.ResponseCode)
	})

	t.Run("resolve unknown shard is a server error", func(t *testing.T) {
		resp := get(t, srv, token, fmt.Sprintf("/debug/querycommand/%s/%s/%s", id, testAgent, testGroup))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("agent map", func(t *testing.T) {
		resp := get(t, srv, token, "/debug/dataagentmap")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Version int64 `json:"version"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.EqualValues(t, 3, body.Version)
	})
}
