package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/flightdash/internal/config"
	"github.com/nao1215/flightdash/internal/database"
)

const integrationQuery = `{"fromId": "DEL.AIRPORT", "toId": "BOM.AIRPORT", "departDate": "2026-12-20", "adults": 1, "returnDate": null}`

const integrationBody = `{"status":true,"message":"Success","data":{` +
	`"aggregation":{"totalCount":3,"filteredTotalCount":2,"minPrice":{"currencyCode":"INR","units":4519,"nanos":0},` +
	`"stops":[{"numberOfStops":0,"count":2,"minPrice":{"units":4519}}],` +
	`"airlines":[{"name":"IndiGo","iataCode":"6E","count":2,"minPricePerAdult":{"units":4519}}]},` +
	`"flightOffers":[{"segments":[{"departureAirport":{"code":"DEL","cityName":"New Delhi"},` +
	`"arrivalAirport":{"code":"BOM","cityName":"Mumbai"},"departureTime":"2026-12-20T06:00:00",` +
	`"arrivalTime":"2026-12-20T08:10:00","legs":[{"carriersData":[{"name":"IndiGo"}]}],"totalTime":7800}],` +
	`"priceBreakdown":{"total":{"currencyCode":"INR","units":4519}}}]}}`

// fakeAPI stands in for the flight search endpoint.
type fakeAPI struct {
	server *httptest.Server
	status int

	mu    sync.Mutex
	calls int
	key   string
	query string
}

func newFakeAPI(t *testing.T, status int) *fakeAPI {
	t.Helper()

	api := &fakeAPI{status: status}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.calls++
		api.key = r.Header.Get("x-rapidapi-key")
		api.query = r.URL.RawQuery
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(api.status)
		if api.status != http.StatusOK {
			_, _ = w.Write([]byte(`{"message":"You are not subscribed to this API."}`))
			return
		}
		_, _ = w.Write([]byte(integrationBody))
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) snapshot() (calls int, key, query string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls, a.key, a.query
}

// workspace is a project directory with settings pointing at a fake API.
type workspace struct {
	dir      string
	settings string
	api      *fakeAPI
}

func newWorkspace(t *testing.T, status int) *workspace {
	t.Helper()

	dir := t.TempDir()
	api := newFakeAPI(t, status)

	queryFile := filepath.Join(dir, "config", "query_params.json")
	if err := os.MkdirAll(filepath.Dir(queryFile), 0750); err != nil {
		t.Fatalf("failed to create config directory: %v", err)
	}
	if err := os.WriteFile(queryFile, []byte(integrationQuery), 0600); err != nil {
		t.Fatalf("failed to write query: %v", err)
	}

	settings := fmt.Sprintf(`api:
  url: %s/api/v1/flights/searchFlights
  rateLimit: 100
paths:
  query: %s
  data: %s
  dashboard: %s
dashboard:
  timezone: UTC
history:
  dbDir: %s
`, api.server.URL, queryFile, filepath.Join(dir, "data"), filepath.Join(dir, "dashboard"), filepath.Join(dir, "db"))

	path := filepath.Join(dir, ".flightdash.yaml")
	if err := os.WriteFile(path, []byte(settings), 0600); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return &workspace{dir: dir, settings: path, api: api}
}

func (w *workspace) path(elem ...string) string {
	return filepath.Join(append([]string{w.dir}, elem...)...)
}

// execute runs flightdash with args and returns stdout.
func (w *workspace) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", w.settings, "--env-file", w.path(".env")))
	err := cmd.Execute()
	if err != nil {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test file path
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// TestIntegration_Stages runs fetch, process and generate one at a time.
func TestIntegration_Stages(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "integration-key")
	w := newWorkspace(t, http.StatusOK)

	t.Run("fetch stores the raw response", func(t *testing.T) {
		out, err := w.execute(t, "fetch")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !strings.Contains(out, "Saved raw response") {
			t.Errorf("unexpected output %q", out)
		}

		calls, key, query := w.api.snapshot()
		if calls != 1 || key != "integration-key" {
			t.Errorf("expected one call with the API key, got %d calls key=%q", calls, key)
		}
		if !strings.Contains(query, "fromId=DEL.AIRPORT") || strings.Contains(query, "returnDate") {
			t.Errorf("unexpected query string %q", query)
		}
		if raw := readFile(t, w.path("data", "raw", "response.json")); !strings.Contains(raw, "fetched_at") {
			t.Errorf("expected fetch metadata in raw file:\n%s", raw)
		}
	})

	t.Run("process writes the summary and history", func(t *testing.T) {
		out, err := w.execute(t, "process")
		if err != nil {
			t.Fatalf("process failed: %v", err)
		}
		if !strings.Contains(out, "₹4,519") {
			t.Errorf("expected minimum price in output, got %q", out)
		}
		if summary := readFile(t, w.path("data", "processed", "summary.json")); !strings.Contains(summary, "4519") {
			t.Errorf("unexpected summary:\n%s", summary)
		}
		history := readFile(t, w.path("data", "history", "price_log.csv"))
		if !strings.HasPrefix(history, "date_ist,min_price\n") || !strings.Contains(history, ",4519\n") {
			t.Errorf("unexpected history:\n%s", history)
		}
	})

	t.Run("generate renders and publishes", func(t *testing.T) {
		out, err := w.execute(t, "generate", "--markdown", "--json", "--publish-dir", w.path("docs"))
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if !strings.Contains(out, "index.html") {
			t.Errorf("expected artifacts in output, got %q", out)
		}

		html := readFile(t, w.path("dashboard", "index.html"))
		for _, want := range []string{"Flight Dashboard", "₹4,519", "IndiGo", "DEL.AIRPORT"} {
			if !strings.Contains(html, want) {
				t.Errorf("expected %q in dashboard", want)
			}
		}
		for _, name := range []string{"summary.md", "dashboard.json"} {
			if _, err := os.Stat(w.path("dashboard", name)); err != nil {
				t.Errorf("expected %s: %v", name, err)
			}
		}
		for _, name := range []string{"index.html", ".nojekyll"} {
			if _, err := os.Stat(w.path("docs", name)); err != nil {
				t.Errorf("expected published %s: %v", name, err)
			}
		}
	})

	t.Run("history lists the point", func(t *testing.T) {
		out, err := w.execute(t, "history")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "₹4,519") || !strings.Contains(out, "Lowest") {
			t.Errorf("unexpected history output:\n%s", out)
		}
	})

	t.Run("csv history imports into sqlite once", func(t *testing.T) {
		csvPath := w.path("data", "history", "price_log.csv")
		for _, want := range []string{"Imported 1 of 1", "Imported 0 of 1"} {
			out, err := w.execute(t, "history", "--history", "sqlite", "--import", csvPath)
			if err != nil {
				t.Fatalf("history --import failed: %v", err)
			}
			if !strings.Contains(out, want) {
				t.Errorf("expected %q, got %q", want, out)
			}
		}
	})
}

// TestIntegration_RunWithSQLite runs the whole pipeline and inspects the recorded runs.
func TestIntegration_RunWithSQLite(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "integration-key")
	w := newWorkspace(t, http.StatusOK)

	stepSummary := w.path("step_summary.md")
	if err := os.WriteFile(stepSummary, []byte("previous step\n"), 0600); err != nil {
		t.Fatalf("failed to seed step summary: %v", err)
	}

	out, err := w.execute(t, "run", "--history", "sqlite", "--step-summary", stepSummary)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"FLIGHT DASHBOARD", "₹4,519", "index.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in run output:\n%s", want, out)
		}
	}
	md := readFile(t, stepSummary)
	if !strings.HasPrefix(md, "previous step\n") || !strings.Contains(md, "# ✈️ Flight Dashboard") || !strings.Contains(md, "₹4,519") {
		t.Errorf("expected the report appended to the step summary:\n%s", md)
	}
	if _, err := os.Stat(w.path("data", "history", "price_log.csv")); !os.IsNotExist(err) {
		t.Error("sqlite backend must not write the CSV history")
	}

	out, err = w.execute(t, "history", "--history", "sqlite", "--runs", "5")
	if err != nil {
		t.Fatalf("history --runs failed: %v", err)
	}
	if !strings.Contains(out, "succeeded") {
		t.Errorf("expected a succeeded run:\n%s", out)
	}

	out, err = w.execute(t, "history", "--history", "sqlite")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "₹4,519") {
		t.Errorf("expected the recorded price:\n%s", out)
	}

	db, err := database.Open(w.path("db"), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	records, err := db.ListRuns(t.Context(), 1)
	if cerr := db.Close(); cerr != nil {
		t.Fatalf("failed to close database: %v", cerr)
	}
	if err != nil || len(records) != 1 {
		t.Fatalf("ListRuns() = %v, %v", records, err)
	}

	out, err = w.execute(t, "history", "--history", "sqlite", "--run", records[0].ID)
	if err != nil {
		t.Fatalf("history --run failed: %v", err)
	}
	for _, want := range []string{records[0].ID, "succeeded", "fetch, process, render", "₹4,519", "Artifacts:", "index.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in run details:\n%s", want, out)
		}
	}

	if _, err := w.execute(t, "history", "--history", "sqlite", "--run", "missing"); !errors.Is(err, errRunNotFound) {
		t.Errorf("expected errRunNotFound, got %v", err)
	}
}

// TestIntegration_QuietRun tests that --quiet still writes the step summary.
func TestIntegration_QuietRun(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "integration-key")
	w := newWorkspace(t, http.StatusOK)

	stepSummary := w.path("summary", "step.md")
	if _, err := w.execute(t, "run", "--quiet", "--step-summary", stepSummary); err == nil {
		t.Fatal("expected an error for a missing step summary directory")
	}

	stepSummary = w.path("step.md")
	out, err := w.execute(t, "run", "--quiet", "--step-summary", stepSummary)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.Contains(out, "FLIGHT DASHBOARD") {
		t.Errorf("quiet run printed the summary:\n%s", out)
	}
	if md := readFile(t, stepSummary); !strings.Contains(md, "# ✈️ Flight Dashboard") {
		t.Errorf("unexpected step summary:\n%s", md)
	}
}

// TestIntegration_APIError tests that a failed fetch fails the run and is recorded.
func TestIntegration_APIError(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "integration-key")
	w := newWorkspace(t, http.StatusForbidden)

	_, err := w.execute(t, "run", "--history", "sqlite", "--quiet")
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status in error, got %v", err)
	}
	if _, err := os.Stat(w.path("dashboard", "index.html")); !os.IsNotExist(err) {
		t.Error("dashboard must not be generated after a failed fetch")
	}

	out, err := w.execute(t, "history", "--history", "sqlite", "--runs", "1")
	if err != nil {
		t.Fatalf("history --runs failed: %v", err)
	}
	if !strings.Contains(out, "failed") {
		t.Errorf("expected the failed run to be recorded:\n%s", out)
	}
}

// TestIntegration_APIKey tests where the API key comes from.
func TestIntegration_APIKey(t *testing.T) {
	t.Run("missing key fails before calling the API", func(t *testing.T) {
		t.Setenv(config.APIKeyEnv, "")
		w := newWorkspace(t, http.StatusOK)

		_, err := w.execute(t, "fetch")
		if !errors.Is(err, config.ErrMissingAPIKey) {
			t.Fatalf("expected ErrMissingAPIKey, got %v", err)
		}
		if calls, _, _ := w.api.snapshot(); calls != 0 {
			t.Errorf("expected no API call, got %d", calls)
		}
		if _, err := os.Stat(w.path("data", "raw", "response.json")); !os.IsNotExist(err) {
			t.Error("raw file must not be written")
		}
	})

	t.Run("key from .env file", func(t *testing.T) {
		// Setenv restores the variable when the test ends.
		t.Setenv(config.APIKeyEnv, "")
		if err := os.Unsetenv(config.APIKeyEnv); err != nil {
			t.Fatalf("failed to unset %s: %v", config.APIKeyEnv, err)
		}
		w := newWorkspace(t, http.StatusOK)
		if err := os.WriteFile(w.path(".env"), []byte("RAPIDAPI_KEY=from-dotenv\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		if _, err := w.execute(t, "fetch"); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if _, key, _ := w.api.snapshot(); key != "from-dotenv" {
			t.Errorf("expected key from .env, got %q", key)
		}
	})
}

// TestIntegration_GenerateWithoutData tests that a fresh workspace renders an empty dashboard.
func TestIntegration_GenerateWithoutData(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, http.StatusOK)
	if _, err := w.execute(t, "generate"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	html := readFile(t, w.path("dashboard", "index.html"))
	if !strings.Contains(html, "No flights available") {
		t.Error("expected empty tables")
	}
	if calls, _, _ := w.api.snapshot(); calls != 0 {
		t.Errorf("generate must not call the API, got %d calls", calls)
	}
}
