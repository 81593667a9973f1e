package itest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	csvstore "github.com/TresYap/sakaydb/internal/adapters/csvfile/tablestore"
	"github.com/TresYap/sakaydb/internal/adapters/httpapi"
	memstore "github.com/TresYap/sakaydb/internal/adapters/memory/tablestore"
	pgstore "github.com/TresYap/sakaydb/internal/adapters/postgres/tablestore"
	postgres_testutil "github.com/TresYap/sakaydb/internal/adapters/postgres/testutil"
	sqlitestore "github.com/TresYap/sakaydb/internal/adapters/sqlite/tablestore"
	"github.com/TresYap/sakaydb/internal/app/ledger"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendCSV      backend = "csv"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "csv":
		return []backend{backendCSV}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "local":
		return []backend{backendMemory, backendCSV, backendSQLite}
	case "all":
		return []backend{backendMemory, backendCSV, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|csv|sqlite|postgres|local|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func openStore(t *testing.T, b backend) tablestore.Store {
	t.Helper()

	switch b {
	case backendMemory:
		return memstore.NewStore()
	case backendCSV:
		s, err := csvstore.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("csv store: %v", err)
		}
		return s
	case backendSQLite:
		s, err := sqlitestore.Open(context.Background(), filepath.Join(t.TempDir(), "itest.db"))
		if err != nil {
			t.Fatalf("sqlite store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t, pgstore.Migrate)
		postgres_testutil.Truncate(t, pool, "ledger_rows", "ledger_tables")
		return pgstore.NewStore(pool)
	default:
		t.Fatalf("unknown backend: %s", b)
		return nil
	}
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	svc := ledger.NewService(ledger.NewEntityStore(openStore(t, b), ledger.EntityStoreOptions{}), zerolog.Nop())
	handler := httpapi.NewRouter(httpapi.NewServer(svc), httpapi.RouterOptions{Logger: zerolog.Nop()})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestId string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Error.RequestId == "" {
		t.Fatalf("expected requestId in error body=%s", string(body))
	}
}
