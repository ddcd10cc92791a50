package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fridgetrack/internal/inventory"
	"fridgetrack/internal/models"
	"fridgetrack/internal/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubExtractor returns a fixed batch or error without calling a model.
type stubExtractor struct {
	batch models.CandidateBatch
	err   error
}

func (s stubExtractor) Extract(ctx context.Context, transcript string, inventoryNames []string) (models.CandidateBatch, error) {
	return s.batch, s.err
}

func newTestServer(t *testing.T, ext TranscriptExtractor) (*Server, *inventory.Store) {
	t.Helper()
	store, err := inventory.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	srv := NewServer(store, ext, metrics, zerolog.Nop(), Options{})
	return srv, store
}

func doJSON(srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

type logResponse struct {
	Log []models.ValidationResult `json:"log"`
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, stubExtractor{})

	w := doJSON(srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Server is running", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestParseTranscriptWithClientSnapshot(t *testing.T) {
	ext := stubExtractor{batch: models.CandidateBatch{Items: []models.CandidateItem{
		{Action: models.ActionRemove, ItemName: "egg", Quantity: 2, Unit: "pcs"},
	}}}
	srv, _ := newTestServer(t, ext)

	// selectedMemberId arrives as a JSON number from some clients.
	body := map[string]interface{}{
		"transcript":       "I used two eggs",
		"selectedMemberId": 1,
		"inventory": []map[string]interface{}{
			{"item_id": "e1", "item_name": "Egg", "quantity": 12, "unit": "pcs"},
		},
		"householdMembers": []map[string]interface{}{
			{"member_id": 1, "member_name": "Alice"},
		},
	}

	w := doJSON(srv, http.MethodPost, "/api/parse-transcript", body)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp logResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Log, 1)
	result := resp.Log[0]
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, "Successfully validated 1 item(s) for Alice", result.Description)
	require.Len(t, result.Data, 1)
	assert.Equal(t, float64(2), result.Data[0].Quantity)
	require.NotNil(t, result.Data[0].Item)
	assert.Equal(t, models.FlexID("e1"), *result.Data[0].Item)
}

func TestParseTranscriptValidationFailure(t *testing.T) {
	ext := stubExtractor{batch: models.CandidateBatch{Items: []models.CandidateItem{
		{Action: models.ActionRemove, ItemName: "kale", Quantity: 1, Unit: "pcs"},
	}}}
	srv, _ := newTestServer(t, ext)

	body := map[string]interface{}{
		"transcript": "I used some kale",
		"inventory": []map[string]interface{}{
			{"item_id": "e1", "item_name": "Egg", "quantity": 12},
		},
	}

	w := doJSON(srv, http.MethodPost, "/api/parse-transcript", body)

	// Validation failures are reported in the payload, not the status code.
	assert.Equal(t, http.StatusOK, w.Code)
	var resp logResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Log, 1)
	assert.Equal(t, models.StatusUnsuccessful, resp.Log[0].Status)
	require.Len(t, resp.Log[0].Errors, 1)
	assert.Contains(t, resp.Log[0].Errors[0].Message, "Available items: Egg")
}

func TestParseTranscriptExtractorFailure(t *testing.T) {
	srv, _ := newTestServer(t, stubExtractor{err: errors.New("model unavailable")})

	body := map[string]interface{}{"transcript": "anything"}
	w := doJSON(srv, http.MethodPost, "/api/parse-transcript", body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp struct {
		Error   string                    `json:"error"`
		Details string                    `json:"details"`
		Log     []models.ValidationResult `json:"log"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to parse transcript", resp.Error)
	assert.Contains(t, resp.Details, "model unavailable")
	require.Len(t, resp.Log, 1)
	require.Len(t, resp.Log[0].Errors, 1)
	assert.Equal(t, "System error", resp.Log[0].Errors[0].Check)
	assert.Equal(t, "Internal server error occurred while processing transcript", resp.Log[0].Errors[0].Message)
}

func TestParseTranscriptRequiresTranscript(t *testing.T) {
	srv, _ := newTestServer(t, stubExtractor{})

	w := doJSON(srv, http.MethodPost, "/api/parse-transcript", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyTranscriptMutatesStore(t *testing.T) {
	srv, store := newTestServer(t, stubExtractor{})

	_, err := store.AddOrMerge(models.InventoryItem{Name: "Egg", Quantity: 12, Unit: "pcs"})
	require.NoError(t, err)

	body := map[string]interface{}{
		"selectedMemberId": "",
		"items": []map[string]interface{}{
			{"action": "remove", "itemName": "egg", "quantity": 2, "unit": "pcs"},
		},
	}

	w := doJSON(srv, http.MethodPost, "/api/v1/transcript/apply", body)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp logResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Log, 1)
	assert.Equal(t, models.StatusSuccess, resp.Log[0].Status)

	items, err := store.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(10), items[0].Quantity)

	logs, err := store.Logs()
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestApplyTranscriptRejectedBatchLeavesStoreUntouched(t *testing.T) {
	srv, store := newTestServer(t, stubExtractor{})

	_, err := store.AddOrMerge(models.InventoryItem{Name: "Egg", Quantity: 12, Unit: "pcs"})
	require.NoError(t, err)

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"action": "remove", "itemName": "kale", "quantity": 1, "unit": "pcs"},
		},
	}

	w := doJSON(srv, http.MethodPost, "/api/v1/transcript/apply", body)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp logResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusUnsuccessful, resp.Log[0].Status)

	items, err := store.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(12), items[0].Quantity)
}

func TestAddItemsSingleWithStringQuantity(t *testing.T) {
	srv, store := newTestServer(t, stubExtractor{})

	body := map[string]interface{}{"name": "Milk", "quantity": "1 L", "category": "dairy"}
	w := doJSON(srv, http.MethodPost, "/api/v1/inventory", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	items, err := store.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].Quantity)
	assert.Equal(t, "L", items[0].Unit)
	assert.Equal(t, models.CategoryDairy, items[0].Category)
}

func TestAddItemsArray(t *testing.T) {
	srv, store := newTestServer(t, stubExtractor{})

	body := []map[string]interface{}{
		{"name": "Egg", "quantity": 12},
		{"name": "Bread", "quantity": 1, "unit": "Loaf"},
	}
	w := doJSON(srv, http.MethodPost, "/api/v1/inventory", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	items, err := store.Items()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestMemberEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, stubExtractor{})

	w := doJSON(srv, http.MethodPost, "/api/v1/members", map[string]interface{}{"member_name": "Alice"})
	assert.Equal(t, http.StatusCreated, w.Code)
	var member models.HouseholdMember
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &member))
	assert.Equal(t, models.FlexID("1"), member.MemberID)

	w = doJSON(srv, http.MethodGet, "/api/v1/members", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodDelete, "/api/v1/members/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodDelete, "/api/v1/members/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveUnknownItem(t *testing.T) {
	srv, _ := newTestServer(t, stubExtractor{})

	w := doJSON(srv, http.MethodDelete, "/api/v1/inventory/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
