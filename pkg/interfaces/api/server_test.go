package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/application/services/orchestration"
	"github.com/vsinha/dough/pkg/domain/entities"
	"github.com/vsinha/dough/pkg/infrastructure/clock"
	"github.com/vsinha/dough/pkg/infrastructure/events"
	"github.com/vsinha/dough/pkg/infrastructure/idgen"
	"github.com/vsinha/dough/pkg/infrastructure/metrics"
	"github.com/vsinha/dough/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/dough/pkg/infrastructure/seed"
)

var start = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, policy entities.Policy) (*gin.Engine, *clock.FakeClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFakeClock(start)
	registry := prometheus.NewRegistry()
	store := events.NewInMemoryEventStore(nil)
	restocks := events.NewRestockLog(nil)
	require.NoError(t, restocks.Subscribe(store))

	orch, err := orchestration.NewInventoryOrchestrator(policy, memory.NewBatchRepository(8), idgen.NewSequence("B-", 2001), orchestration.Options{
		Events:     store,
		Metrics:    metrics.New(registry),
		Logger:     zap.NewNop(),
		EventClock: clk,
	})
	require.NoError(t, err)

	var seeds []entities.Batch
	for _, b := range seed.Default(start) {
		seeds = append(seeds, *b)
	}
	require.NoError(t, orch.Initialize(context.Background(), seeds))

	return NewServer(orch, clk, registry, restocks, zap.NewNop()).Handler(), clk
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func TestListBatches(t *testing.T) {
	router, _ := newTestServer(t, entities.DefaultPolicy())

	rec := do(t, router, http.MethodGet, "/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)

	batches := decode[[]entities.Batch](t, rec)
	require.Len(t, batches, 4)
	assert.Equal(t, entities.BatchID("B-1001"), batches[0].ID)
	assert.Equal(t, entities.Ready, batches[0].Stage)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestComputePlan(t *testing.T) {
	router, _ := newTestServer(t, entities.DefaultPolicy())

	rec := do(t, router, http.MethodGet, "/plan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.Plan{
		DemandLunch:       19,
		DemandDinner:      23,
		LunchShortfall:    2,
		DinnerShortfall:   16,
		TotalTraysToStart: 18,
		TraysReady:        10,
		InboundReadyBy50h: 7,
	}, decode[entities.Plan](t, rec))

	rec = do(t, router, http.MethodGet, "/plan?lunch=0&dinner=0&min_tray_buffer=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[entities.Plan](t, rec).TotalTraysToStart)

	rec = do(t, router, http.MethodGet, "/plan?lunch=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleaseAndConsume(t *testing.T) {
	router, clk := newTestServer(t, entities.DefaultPolicy())

	rec := do(t, router, http.MethodPost, "/batches/release", `{"trays": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	release := decode[struct {
		UnitsRequested entities.Quantity `json:"units_requested"`
		Created        []struct {
			BatchID entities.BatchID `json:"batch_id"`
		} `json:"created"`
	}](t, rec)
	assert.Equal(t, entities.Quantity(36), release.UnitsRequested)
	require.Len(t, release.Created, 1)

	clk.Advance(time.Hour)
	rec = do(t, router, http.MethodPost, "/batches/consume", `{"trays": 20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	consume := decode[struct {
		Consumed    entities.Quantity `json:"consumed"`
		Unfulfilled entities.Quantity `json:"unfulfilled"`
	}](t, rec)
	assert.Equal(t, entities.Quantity(120), consume.Consumed)
	assert.Equal(t, entities.Quantity(120), consume.Unfulfilled)

	rec = do(t, router, http.MethodPost, "/batches/consume", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestAdvance(t *testing.T) {
	router, clk := newTestServer(t, entities.DefaultPolicy())
	clk.Advance(time.Hour)

	rec := do(t, router, http.MethodPost, "/batches/B-1003/advance", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	batches := decode[[]entities.Batch](t, do(t, router, http.MethodGet, "/batches", ""))
	assert.Equal(t, entities.Proving, batches[2].Stage)
	assert.Equal(t, clk.Now(), batches[2].StageEnteredAt)
}

func TestStrictErrorsMapToStatusCodes(t *testing.T) {
	policy := entities.DefaultPolicy()
	policy.StrictValidation = true
	policy.StrictFrozenStock = true
	policy.EnforceDefrostComplete = true
	router, _ := newTestServer(t, policy)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"zero_trays", http.MethodPost, "/batches/release", `{"trays": 0}`, http.StatusBadRequest, "invalid_quantity"},
		{"insufficient_stock", http.MethodPost, "/batches/release", `{"trays": 50}`, http.StatusConflict, "insufficient_stock"},
		{"unknown_batch", http.MethodPost, "/batches/nope/advance", "", http.StatusNotFound, "batch_not_found"},
		{"defrost_not_done", http.MethodPost, "/batches/B-1003/advance", "", http.StatusConflict, "invalid_transition"},
		{"negative_forecast", http.MethodGet, "/plan?lunch=-5", "", http.StatusBadRequest, "invalid_quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Error.Type)
		})
	}
}

func TestUnrepresentableInputsRejected(t *testing.T) {
	router, _ := newTestServer(t, entities.DefaultPolicy())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"release_overflows_units", http.MethodPost, "/batches/release", `{"trays": 768614336404564651}`},
		{"consume_overflows_units", http.MethodPost, "/batches/consume", `{"trays": 9223372036854775807}`},
		{"nan_safety", http.MethodGet, "/plan?safety_pct=NaN", ""},
		{"inf_safety", http.MethodGet, "/plan?safety_pct=Inf", ""},
		{"negative_inf_safety", http.MethodGet, "/plan?safety_pct=-Inf", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_quantity", resp.Error.Type)
		})
	}

	rec := do(t, router, http.MethodGet, "/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]entities.Batch](t, rec), 4)
}

func TestRestockOrdersFollowFreezerShortfall(t *testing.T) {
	router, _ := newTestServer(t, entities.DefaultPolicy())

	rec := do(t, router, http.MethodGet, "/restocks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]events.RestockOrder](t, rec))

	// 15 trays is 180 units against 140 frozen: 40 short, restock box of 30
	rec = do(t, router, http.MethodPost, "/batches/release", `{"trays": 15}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []events.RestockOrder
	require.Eventually(t, func() bool {
		orders = decode[[]events.RestockOrder](t, do(t, router, http.MethodGet, "/restocks", ""))
		return len(orders) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, entities.Quantity(30), orders[0].Quantity)
	assert.Equal(t, entities.Quantity(40), orders[0].Shortfall)
	assert.Equal(t, start, orders[0].RequestedAt)
}

func TestSummaryEventsAndMetrics(t *testing.T) {
	router, _ := newTestServer(t, entities.DefaultPolicy())
	do(t, router, http.MethodPost, "/batches/release", `{"trays": 1}`)

	rec := do(t, router, http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Defrosting":60`)
	assert.Contains(t, rec.Body.String(), `"48-72h":120`)

	rec = do(t, router, http.MethodGet, "/events?from=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"batch.released"`)
	assert.Contains(t, rec.Body.String(), `"next":5`)

	rec = do(t, router, http.MethodGet, "/events?from=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `dough_operations_total{operation="release",outcome="ok"} 1`), body)
	assert.Contains(t, body, `dough_stage_units{stage="Defrosting"} 60`)
}
