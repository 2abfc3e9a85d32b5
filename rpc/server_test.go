package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mortgagemesh/config"
	"github.com/hupe1980/mortgagemesh/core"
	"github.com/hupe1980/mortgagemesh/extract"
	"github.com/hupe1980/mortgagemesh/registry"
	"github.com/hupe1980/mortgagemesh/store"
	"github.com/hupe1980/mortgagemesh/workflow"
)

type testEnv struct {
	orch   *workflow.Orchestrator
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	reg := registry.New(extract.NewStaticExtractor())
	orch := workflow.New(reg, store.NewInMemoryStore(), cfg)

	d := NewDispatcher(orch, reg, cfg)
	s := NewServer(d, cfg.Server, nil)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(orch.Wait)

	return &testEnv{orch: orch, server: ts}
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

func (e *testEnv) post(t *testing.T, body string) wireResponse {
	t.Helper()

	resp, err := http.Post(e.server.URL+"/rpc", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out wireResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "2.0", out.JSONRPC)
	return out
}

func (e *testEnv) call(t *testing.T, method string, params any) wireResponse {
	t.Helper()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return e.post(t, string(body))
}

func rpcTestApplication() *core.Application {
	return &core.Application{
		ID: "APP-RPC-1",
		Borrower: core.Borrower{
			FirstName:        "Jane",
			LastName:         "Homeowner",
			SSN:              "123-45-6789",
			DateOfBirth:      "1988-04-12",
			Email:            "jane@example.com",
			CurrentAddress:   "742 Evergreen Terrace",
			EmploymentStatus: "employed",
			Employer:         "Springfield General",
			AnnualIncome:     95000,
			MonthlyDebt:      650,
			CreditScore:      742,
		},
		Property: core.Property{
			Address:       "1420 Maple Street",
			PropertyType:  "single_family",
			PropertyValue: 385000,
			YearBuilt:     1998,
		},
		Loan: core.LoanRequest{
			LoanAmount:    308000,
			LoanType:      "conventional",
			LoanTermYears: 30,
			DownPayment:   77000,
		},
		Documents: []core.Document{
			{ID: "doc-1", Type: core.DocumentIdentity, FileName: "drivers_license.pdf"},
			{ID: "doc-2", Type: core.DocumentPayStub, FileName: "paystub.pdf"},
		},
	}
}

func TestStartStatusRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "workflow/start", map[string]any{
		"application": rpcTestApplication(),
		"mode":        "sequential",
	})
	require.Nil(t, out.Error)

	var started core.ExecutionRecord
	require.NoError(t, json.Unmarshal(out.Result, &started))
	require.NotEmpty(t, started.ID)
	assert.Equal(t, "APP-RPC-1", started.ApplicationID)

	env.orch.Wait()

	out = env.call(t, "workflow/status", map[string]any{"execution_id": started.ID})
	require.Nil(t, out.Error)

	var rec core.ExecutionRecord
	require.NoError(t, json.Unmarshal(out.Result, &rec))
	assert.Equal(t, core.ExecutionCompleted, rec.Status)
	require.NotNil(t, rec.Decision)
	assert.NotZero(t, rec.Decision.OverallScore)

	out = env.call(t, "workflow/list", nil)
	require.Nil(t, out.Error)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &list))
	assert.Equal(t, 1, list.Count)

	// Completed runs cannot be cancelled.
	out = env.call(t, "workflow/cancel", map[string]any{"execution_id": started.ID})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeAlreadyTerminal, out.Error.Code)
}

func TestStartRejectsInvalidApplication(t *testing.T) {
	env := newTestEnv(t)

	app := rpcTestApplication()
	app.Loan.LoanAmount = 0

	out := env.call(t, "workflow/start", map[string]any{"application": app})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeInvalidParams, out.Error.Code)
}

func TestStatusUnknownExecution(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "workflow/status", map[string]any{"execution_id": "missing"})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeNotFound, out.Error.Code)
}

func TestParseError(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, `{"jsonrpc": "2.0", "method": `)
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeParseError, out.Error.Code)
}

func TestInvalidRequest(t *testing.T) {
	env := newTestEnv(t)

	// Missing jsonrpc version.
	out := env.post(t, `{"id": 1, "method": "system/health"}`)
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeInvalidRequest, out.Error.Code)

	// Trailing garbage after the request object.
	out = env.post(t, `{"jsonrpc": "2.0", "id": 1, "method": "system/health"} {}`)
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeInvalidRequest, out.Error.Code)
}

func TestMethodNotFound(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "workflow/destroy", nil)
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeMethodNotFound, out.Error.Code)
}

func TestGetNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/rpc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAgentsAndToolsList(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "agents/list", nil)
	require.Nil(t, out.Error)
	var agents struct {
		Count  int `json:"count"`
		Agents []struct {
			Name  string   `json:"name"`
			Tools []string `json:"tools"`
		} `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &agents))
	assert.Equal(t, 6, agents.Count)
	assert.Equal(t, "document_processing", agents.Agents[0].Name)
	assert.NotEmpty(t, agents.Agents[0].Tools)

	out = env.call(t, "tools/list", nil)
	require.Nil(t, out.Error)
	var tools struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &tools))
	assert.Equal(t, 18, tools.Count)
}

func TestAgentsInfo(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "agents/info", map[string]any{"name": "risk_assessment"})
	require.Nil(t, out.Error)
	var info struct {
		Domain string  `json:"domain"`
		Weight float64 `json:"weight"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &info))
	assert.Equal(t, "risk", info.Domain)
	assert.InDelta(t, 0.20, info.Weight, 1e-9)

	out = env.call(t, "agents/info", map[string]any{"name": "nope"})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeNotFound, out.Error.Code)
}

func TestToolsCall(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "tools/call", map[string]any{
		"name":      "credit_score_analyzer",
		"arguments": map[string]any{"credit_score": 780},
	})
	require.Nil(t, out.Error)

	var result struct {
		Tool   string         `json:"tool"`
		Output map[string]any `json:"output"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &result))
	assert.Equal(t, "credit_score_analyzer", result.Tool)
	assert.Equal(t, "excellent", result.Output["tier"])

	out = env.call(t, "tools/call", map[string]any{"name": "unknown_tool"})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeNotFound, out.Error.Code)
}

func TestDocumentsUploadRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	content := base64.StdEncoding.EncodeToString([]byte("paystub bytes"))
	out := env.call(t, "documents/upload", map[string]any{
		"application_id": "APP-RPC-1",
		"document_id":    "doc-2",
		"content_type":   "application/pdf",
		"content":        content,
	})
	require.Nil(t, out.Error)

	var meta struct {
		DocumentID string `json:"document_id"`
		Size       int64  `json:"size"`
		SHA256     string `json:"sha256"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &meta))
	assert.Equal(t, "doc-2", meta.DocumentID)
	assert.Equal(t, int64(13), meta.Size)
	assert.Len(t, meta.SHA256, 64)

	out = env.call(t, "documents/get", map[string]any{
		"application_id": "APP-RPC-1",
		"document_id":    "doc-2",
	})
	require.Nil(t, out.Error)
	var got struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &got))
	assert.Equal(t, content, got.Content)

	out = env.call(t, "documents/list", map[string]any{"application_id": "APP-RPC-1"})
	require.Nil(t, out.Error)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &list))
	assert.Equal(t, 1, list.Count)

	// Bad base64 and unknown documents map onto the standard error codes.
	out = env.call(t, "documents/upload", map[string]any{
		"application_id": "APP-RPC-1",
		"document_id":    "doc-3",
		"content":        "not base64!!",
	})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeInvalidParams, out.Error.Code)

	out = env.call(t, "documents/get", map[string]any{
		"application_id": "APP-RPC-1",
		"document_id":    "missing",
	})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeNotFound, out.Error.Code)
}

func TestSystemHealthAndLiveness(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "system/health", nil)
	require.Nil(t, out.Error)
	var health struct {
		Status string   `json:"status"`
		Agents int      `json:"agents"`
		Tools  int      `json:"tools"`
		Issues []string `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 6, health.Agents)
	assert.Equal(t, 18, health.Tools)
	assert.Empty(t, health.Issues)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSystemHealthEmptyRegistry(t *testing.T) {
	cfg := config.Default()
	reg := registry.FromAgents()
	d := NewDispatcher(workflow.New(reg, store.NewInMemoryStore(), cfg), reg, cfg)

	result, rpcErr := d.Dispatch(context.Background(), "system/health", nil)
	require.Nil(t, rpcErr)

	health, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unhealthy", health["status"])
	assert.ElementsMatch(t, []string{
		"no agents registered",
		"no tools registered",
	}, health["issues"])
}

func TestSystemCleanup(t *testing.T) {
	env := newTestEnv(t)

	out := env.call(t, "system/cleanup", map[string]any{"older_than": "1h"})
	require.Nil(t, out.Error)
	var cleanup struct {
		Removed   int    `json:"removed"`
		OlderThan string `json:"older_than"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &cleanup))
	assert.Equal(t, 0, cleanup.Removed)
	assert.Equal(t, "1h0m0s", cleanup.OlderThan)

	out = env.call(t, "system/cleanup", map[string]any{"older_than": "soon"})
	require.NotNil(t, out.Error)
	assert.Equal(t, CodeInvalidParams, out.Error.Code)
}
