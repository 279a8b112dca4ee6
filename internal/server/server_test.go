package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/cache/memory"
	"github.com/alanyoungcy/arbscanner/internal/fetch"
	"github.com/alanyoungcy/arbscanner/internal/platform/opinion"
	"github.com/alanyoungcy/arbscanner/internal/platform/probable"
	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/service"
	"github.com/alanyoungcy/arbscanner/internal/source"
)

// newTestAPI wires real sources against the given fake upstreams.
func newTestAPI(t *testing.T, opinionUp, probableUp http.Handler, staticDir string) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opSrv := httptest.NewServer(opinionUp)
	t.Cleanup(opSrv.Close)
	prSrv := httptest.NewServer(probableUp)
	t.Cleanup(prSrv.Close)

	doer := fetch.NewClient(fetch.WithTimeout(2 * time.Second))
	cache := memory.NewSlotCache(time.Minute)

	op := source.NewOpinion(
		opinion.NewClient(opinion.Config{BaseURL: opSrv.URL, APIKey: "k", MarketsPath: "/market", PricePath: "/token/latest-price"}, doer),
		cache, source.DefaultOpinionConfig(), logger,
	)
	pr := source.NewProbable(
		probable.NewClient(probable.Config{BaseURL: prSrv.URL, MarketsPath: "/events", PricesPath: "/prices"}, doer),
		cache, source.DefaultProbableConfig(), logger,
	)
	scans := service.NewScanService(op, pr, nil, logger)

	h := NewHandler(Config{StaticDir: staticDir}, Handlers{
		Health:          handler.NewHealthHandler(nil, logger),
		OpinionMarkets:  handler.NewMarketHandler(op, logger),
		OpinionPrices:   handler.NewPriceHandler(op, nil, logger),
		ProbableMarkets: handler.NewMarketHandler(pr, logger),
		ProbablePrices:  handler.NewPriceHandler(nil, pr, logger),
		Scan:            handler.NewScanHandler(scans, logger),
	}, nil, logger)

	api := httptest.NewServer(h)
	t.Cleanup(api.Close)
	return api
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode, body
}

var probableOK = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/events":
		w.Write([]byte(`[{"title":"E","slug":"e","markets":[
			{"id":"p1","question":"Q1","active":true,"closed":false,"tokens":[{"token_id":"t1","outcome":"Yes"},{"token_id":"t2","outcome":"No"}]},
			{"id":"p2","question":"Q2","active":true,"closed":false}
		]}]`))
	case "/prices":
		w.Write([]byte(`{"t1":0.42}`))
	default:
		http.NotFound(w, r)
	}
})

var opinionDown = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("Service Unavailable"))
})

func TestScanIsolation(t *testing.T) {
	api := newTestAPI(t, opinionDown, probableOK, "")

	code, body := getJSON(t, api.URL+"/api/scan")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	op := body["opinion"].(map[string]any)
	pr := body["probable"].(map[string]any)
	if op["count"] != float64(0) {
		t.Errorf("opinion count = %v, want 0", op["count"])
	}
	if pr["count"] != float64(2) || len(pr["markets"].([]any)) != 2 {
		t.Errorf("probable = %v", pr)
	}
	first := pr["markets"].([]any)[0].(map[string]any)
	tok := first["tokens"].([]any)[0].(map[string]any)
	if tok["price"] != 0.42 {
		t.Errorf("joined price = %v, want 0.42", tok["price"])
	}
}

func TestDirectEndpointFailsLoudly(t *testing.T) {
	api := newTestAPI(t, opinionDown, probableOK, "")

	code, body := getJSON(t, api.URL+"/api/opinion/markets")
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	if body["error"] == "" || body["error"] == nil {
		t.Errorf("body = %v, want an error message", body)
	}

	code, body = getJSON(t, api.URL+"/api/probable/markets")
	if code != http.StatusOK || body["source"] != "probable" || body["count"] != float64(2) {
		t.Errorf("probable markets: %d %v", code, body)
	}
}

func TestRoutes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>scanner</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	api := newTestAPI(t, opinionDown, probableOK, dir)

	code, body := getJSON(t, api.URL+"/api/health")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health: %d %v", code, body)
	}

	code, body = getJSON(t, api.URL+"/api/probable/prices")
	if code != http.StatusOK || body["t1"] != 0.42 {
		t.Errorf("prices: %d %v", code, body)
	}

	resp, err := http.Get(api.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(page) != "<h1>scanner</h1>" {
		t.Errorf("static: %d %q", resp.StatusCode, page)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, api.URL+"/api/scan", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/scan = %d, want 405", resp.StatusCode)
	}
}
