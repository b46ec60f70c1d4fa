package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/config"
	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/orchestrator"
	"github.com/atlas-desktop/quant-engine/internal/quant/strategy"
)

type fakeProvider struct {
	bars []engine.Bar
	err  error
}

func (f *fakeProvider) GetHistory(ctx context.Context, ticker string, period engine.Period, interval engine.Interval) ([]engine.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeProvider) GetQuote(ctx context.Context, ticker string) (engine.Quote, error) {
	return engine.Quote{Price: 100}, nil
}

func closesToBars(closes []float64) []engine.Bar {
	bars := make([]engine.Bar, len(closes))
	for i, c := range closes {
		bars[i] = engine.Bar{Timestamp: int64(i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func newTestServer(t *testing.T, provider engine.MarketDataProvider) *Server {
	t.Helper()
	registry := strategy.NewRegistry()
	orch := orchestrator.New(registry, provider, zap.NewNop(), 10*time.Second)
	return NewServer(zap.NewNop(), config.Config{}, registry, provider, orch)
}

func TestHandleHealthReturnsOK(t *testing.T) {
	s := newTestServer(t, &fakeProvider{bars: closesToBars([]float64{1, 2, 3})})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandleStrategiesListsCatalog(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/quant/strategies", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var descriptors []engine.StrategyDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &descriptors); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(descriptors) == 0 {
		t.Error("got an empty strategy catalog, want the registered strategies")
	}
}

func TestHandleRunReturnsResultForValidRequest(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	s := newTestServer(t, &fakeProvider{bars: closesToBars(closes)})

	body := `{"ticker":"AAPL","strategy":"ma_crossover","params":{"fast":3,"slow":5}}`
	req := httptest.NewRequest(http.MethodPost, "/quant/run", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var result orchestrator.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(result.Signals) != 2 {
		t.Errorf("got %d signals, want 2", len(result.Signals))
	}
}

func TestHandleRunMalformedBodyIs400(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodPost, "/quant/run", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorKind(t, rec.Body.Bytes(), apperr.InvalidParams)
}

func TestHandleRunUnknownStrategyIs400(t *testing.T) {
	s := newTestServer(t, &fakeProvider{bars: closesToBars([]float64{1, 2, 3})})

	body := `{"ticker":"AAPL","strategy":"not_a_strategy"}`
	req := httptest.NewRequest(http.MethodPost, "/quant/run", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorKind(t, rec.Body.Bytes(), apperr.UnknownStrategy)
}

func TestHandleRunProviderFailureIs502(t *testing.T) {
	s := newTestServer(t, &fakeProvider{err: errors.New("upstream down")})

	body := `{"ticker":"AAPL","strategy":"ma_crossover"}`
	req := httptest.NewRequest(http.MethodPost, "/quant/run", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	assertErrorKind(t, rec.Body.Bytes(), apperr.DataUnavailable)
}

func TestHandleBacktestAppliesCustomCapitalAndSizeFraction(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	s := newTestServer(t, &fakeProvider{bars: closesToBars(closes)})

	body := `{"ticker":"AAPL","strategy":"ma_crossover","params":{"fast":3,"slow":5},"initial_capital":5000,"size_fraction":0.5}`
	req := httptest.NewRequest(http.MethodPost, "/quant/backtest", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var result engine.BacktestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.InitialCapital != 5000 {
		t.Errorf("InitialCapital = %v, want 5000", result.InitialCapital)
	}
}

func TestHandleAIInsightRequiresTickerAndStrategy(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodPost, "/quant/ai-insight", bytes.NewBufferString(`{"ticker":""}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorKind(t, rec.Body.Bytes(), apperr.InvalidParams)
}

func TestHandleAIInsightReturnsDisclaimer(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})

	body := `{"ticker":"AAPL","strategy":"ma_crossover","metrics":{"verdict":"profitable","confidence":0.8}}`
	req := httptest.NewRequest(http.MethodPost, "/quant/ai-insight", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp aiInsightResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Disclaimer != insightDisclaimer {
		t.Errorf("Disclaimer = %q, want %q", resp.Disclaimer, insightDisclaimer)
	}
}

func TestHandleStreamRunEmitsSSEFrames(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	s := newTestServer(t, &fakeProvider{bars: closesToBars(closes)})

	req := httptest.NewRequest(http.MethodGet, "/quant/stream/run?ticker=AAPL&strategy=ma_crossover", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if got := rec.Body.String(); !bytes.Contains([]byte(got), []byte("event: complete")) {
		t.Errorf("body missing a final complete event, got: %s", got)
	}
}

func TestHandleStreamRunMalformedParamsIs400(t *testing.T) {
	s := newTestServer(t, &fakeProvider{bars: closesToBars([]float64{1, 2, 3})})

	req := httptest.NewRequest(http.MethodGet, "/quant/stream/run?ticker=AAPL&strategy=ma_crossover&params=not-json", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	assertErrorKind(t, rec.Body.Bytes(), apperr.InvalidParams)
}

func TestWriteErrorMapsEveryKindToItsStatus(t *testing.T) {
	cases := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.InvalidParams, http.StatusBadRequest},
		{apperr.UnknownStrategy, http.StatusBadRequest},
		{apperr.DataUnavailable, http.StatusBadGateway},
		{apperr.InternalComputation, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, apperr.Wrapf(tc.kind, errors.New("boom"), "failed"))
		if rec.Code != tc.status {
			t.Errorf("Kind %v -> status %d, want %d", tc.kind, rec.Code, tc.status)
		}
		assertErrorKind(t, rec.Body.Bytes(), tc.kind)
	}
}

func assertErrorKind(t *testing.T, body []byte, want apperr.Kind) {
	t.Helper()
	var payload struct {
		ErrorKind string `json:"error_kind"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apperr.Kind(payload.ErrorKind) != want {
		t.Errorf("error_kind = %q, want %q", payload.ErrorKind, want)
	}
}
