package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/http/middleware"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/bulk"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/services"
)

type stubTimeLog struct {
	entries []types.ParsedEntry
	err     error
	text    string
	date    string
}

func (s *stubTimeLog) Parse(_ context.Context, text, date string) ([]types.ParsedEntry, error) {
	s.text, s.date = text, date
	return s.entries, s.err
}

type stubBulk struct {
	res   *bulk.Result
	err   error
	calls int
	rules *types.PartialValidationRule
}

func (s *stubBulk) Insert(_ context.Context, _ []types.BulkEntry, rules *types.PartialValidationRule) (*bulk.Result, error) {
	s.calls++
	s.rules = rules
	return s.res, s.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestEngine(user uuid.UUID, register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.AttachTraceContext())
	r.Use(func(c *gin.Context) {
		if user != uuid.Nil {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: user})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	register(r)
	return r
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthHandler(t *testing.T) {
	r := newTestEngine(uuid.Nil, func(r *gin.Engine) {
		h := NewHealthHandler(nil)
		r.GET("/healthcheck", h.HealthCheck)
		r.GET("/readyz", h.Ready)
	})
	rec := do(r, http.MethodGet, "/healthcheck", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck=%d %q", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz=%d", rec.Code)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ReadyReportsFailedCheck(t *testing.T) {
	r := newTestEngine(uuid.Nil, func(r *gin.Engine) {
		h := NewHealthHandler(map[string]Pinger{
			"postgres": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
		})
		r.GET("/readyz", h.Ready)
	})
	rec := do(r, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
	failed, _ := decode(t, rec)["failed"].(map[string]any)
	if _, ok := failed["redis"]; !ok || len(failed) != 1 {
		t.Fatalf("failed=%v", failed)
	}
}

func TestTimeLogHandler_Parse(t *testing.T) {
	user := uuid.New()
	cases := []struct {
		name     string
		body     string
		stub     *stubTimeLog
		wantCode int
		wantErr  string
	}{
		{
			name: "ok",
			body: `{"text_log":"9:00-10:00 Prayer","date":" 2024-03-10 "}`,
			stub: &stubTimeLog{entries: []types.ParsedEntry{{
				Date: "2024-03-10", StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60,
				Activity: "Prayer", RawText: "9:00-10:00 Prayer", Format: types.FormatTimeRange,
			}}},
			wantCode: http.StatusOK,
		},
		{name: "empty_text", body: `{"text_log":""}`, stub: &stubTimeLog{}, wantCode: http.StatusOK},
		{name: "missing_text", body: `{"date":"2024-03-10"}`, stub: &stubTimeLog{}, wantCode: http.StatusBadRequest, wantErr: "invalid_request"},
		{name: "malformed_json", body: `{"text_log":`, stub: &stubTimeLog{}, wantCode: http.StatusBadRequest, wantErr: "invalid_request"},
		{
			name:     "bad_date",
			body:     `{"text_log":"x","date":"03/10/2024"}`,
			stub:     &stubTimeLog{err: services.InvalidInput("date must be YYYY-MM-DD")},
			wantCode: http.StatusBadRequest, wantErr: "invalid_request",
		},
		{
			name:     "store_timeout",
			body:     `{"text_log":"x"}`,
			stub:     &stubTimeLog{err: services.MapStoreError(context.DeadlineExceeded)},
			wantCode: http.StatusGatewayTimeout, wantErr: "network_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestEngine(user, func(r *gin.Engine) {
				r.POST("/api/time-log/parse", NewTimeLogHandler(testLogger(t), tc.stub).Parse)
			})
			rec := do(r, http.MethodPost, "/api/time-log/parse", tc.body, nil)
			if rec.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.wantCode, rec.Body.String())
			}
			body := decode(t, rec)
			if tc.wantErr != "" {
				if rid, _ := body["request_id"].(string); body["success"] != false || body["code"] != tc.wantErr || rid == "" {
					t.Fatalf("body=%v", body)
				}
				return
			}
			if body["success"] != true {
				t.Fatalf("body=%v", body)
			}
			entries, ok := body["entries"].([]any)
			if !ok || float64(len(entries)) != body["total"] {
				t.Fatalf("entries=%v total=%v", body["entries"], body["total"])
			}
			if tc.name == "ok" && tc.stub.date != "2024-03-10" {
				t.Fatalf("date passed as %q", tc.stub.date)
			}
		})
	}
}

func TestTimeLogHandler_ServerErrorHidesDetail(t *testing.T) {
	stub := &stubTimeLog{err: errors.New(`pq: relation "categories" does not exist`)}
	r := newTestEngine(uuid.New(), func(r *gin.Engine) {
		r.POST("/api/time-log/parse", NewTimeLogHandler(testLogger(t), stub).Parse)
	})
	rec := do(r, http.MethodPost, "/api/time-log/parse", `{"text_log":"x"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "relation") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestBulkHandler_Outcomes(t *testing.T) {
	user := uuid.New()
	row := &types.Activity{ID: uuid.New(), UserID: user, Name: "Prayer", LogDate: "2024-03-10", DurationMinutes: 30}

	cases := []struct {
		name     string
		stub     *stubBulk
		wantCode int
		check    func(t *testing.T, body map[string]any)
	}{
		{
			name: "ok",
			stub: &stubBulk{res: &bulk.Result{
				Kind: bulk.KindOK, Total: 1, Processed: 1, Committed: 1,
				Warnings: []bulk.Warning{{Entry: 0, Warning: "Duration rounded from 22m to 15m"}},
				Rows:     []*types.Activity{row},
			}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["success"] != true || body["inserted"] != float64(1) || body["total"] != float64(1) {
					t.Fatalf("body=%v", body)
				}
				if w, _ := body["warnings"].([]any); len(w) != 1 {
					t.Fatalf("warnings=%v", body["warnings"])
				}
				if e, _ := body["entries"].([]any); len(e) != 1 {
					t.Fatalf("entries=%v", body["entries"])
				}
			},
		},
		{
			name:     "ok_without_warnings",
			stub:     &stubBulk{res: &bulk.Result{Kind: bulk.KindOK}},
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if _, present := body["warnings"]; present {
					t.Fatalf("warnings should be omitted: %v", body)
				}
				if e, ok := body["entries"].([]any); !ok || len(e) != 0 {
					t.Fatalf("entries=%v", body["entries"])
				}
			},
		},
		{
			name: "validation_failed",
			stub: &stubBulk{res: &bulk.Result{
				Kind: bulk.KindValidationFailed, Total: 2, Processed: 1,
				EntryErrors: []bulk.EntryError{{Entry: 1, Errors: []string{"activity is required"}}},
			}},
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				errs, _ := body["errors"].([]any)
				if body["success"] != false || len(errs) != 1 || body["processed"] != float64(1) || body["total"] != float64(2) {
					t.Fatalf("body=%v", body)
				}
				first, _ := errs[0].(map[string]any)
				if first["entry"] != float64(1) {
					t.Fatalf("errors=%v", errs)
				}
			},
		},
		{
			name: "guardrail_failed",
			stub: &stubBulk{res: &bulk.Result{
				Kind:            bulk.KindGuardrailFailed,
				GuardrailErrors: []string{`Category "Faith" on 2024-03-10: 400 minutes exceeds daily goal of 300 minutes`},
			}},
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				if body["message"] != guardrailMessage {
					t.Fatalf("body=%v", body)
				}
				if errs, _ := body["errors"].([]any); len(errs) != 1 {
					t.Fatalf("errors=%v", body["errors"])
				}
			},
		},
		{
			name: "insert_failed",
			stub: &stubBulk{res: &bulk.Result{
				Kind: bulk.KindInsertFailed, Total: 250, Processed: 250, Committed: 100,
				Failure: errors.Join(bulk.ErrInfrastructure, errors.New("connection reset")),
			}},
			wantCode: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				if body["code"] != "insert_failed" || body["inserted"] != float64(100) || body["total"] != float64(250) {
					t.Fatalf("body=%v", body)
				}
				if rid, _ := body["request_id"].(string); rid == "" || strings.Contains(body["error"].(string), "connection reset") {
					t.Fatalf("body=%v", body)
				}
			},
		},
		{
			name:     "store_unavailable",
			stub:     &stubBulk{err: services.MapStoreError(errors.Join(bulk.ErrInfrastructure, errors.New("dial tcp: refused")))},
			wantCode: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]any) {
				if body["code"] != "store_unavailable" {
					t.Fatalf("body=%v", body)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestEngine(user, func(r *gin.Engine) {
				r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), tc.stub, nil).Insert)
			})
			rec := do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[],"validation_rules":{"sleep_cutoff_hour":3}}`, nil)
			if rec.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.wantCode, rec.Body.String())
			}
			tc.check(t, decode(t, rec))
			if tc.stub.rules == nil || tc.stub.rules.SleepCutoffHour == nil || *tc.stub.rules.SleepCutoffHour != 3 {
				t.Fatalf("rules not forwarded: %+v", tc.stub.rules)
			}
		})
	}
}

func TestBulkHandler_RejectsBadRequests(t *testing.T) {
	stub := &stubBulk{res: &bulk.Result{Kind: bulk.KindOK}}
	cases := []struct {
		name string
		user uuid.UUID
		body string
		want int
	}{
		{name: "anonymous", body: `{"entries":[]}`, want: http.StatusUnauthorized},
		{name: "missing_entries", user: uuid.New(), body: `{}`, want: http.StatusBadRequest},
		{name: "entries_not_array", user: uuid.New(), body: `{"entries":{}}`, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestEngine(tc.user, func(r *gin.Engine) {
				r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), stub, nil).Insert)
			})
			if rec := do(r, http.MethodPost, "/api/activities/bulk", tc.body, nil); rec.Code != tc.want {
				t.Fatalf("status=%d want %d", rec.Code, tc.want)
			}
		})
	}
	if stub.calls != 0 {
		t.Fatalf("service called %d times", stub.calls)
	}
}

func TestBulkHandler_Idempotency(t *testing.T) {
	user := uuid.New()
	ctx := context.Background()

	t.Run("replays_completed_submission", func(t *testing.T) {
		store := services.NewMemoryIdempotencyStore(time.Minute, time.Hour)
		stub := &stubBulk{res: &bulk.Result{Kind: bulk.KindOK, Total: 1, Committed: 1, Rows: []*types.Activity{{ID: uuid.New()}}}}
		r := newTestEngine(user, func(r *gin.Engine) {
			r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), stub, store).Insert)
		})
		hdr := map[string]string{headerIdempotencyKey: "abc"}
		first := do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, hdr)
		second := do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, hdr)
		if first.Code != http.StatusOK || second.Code != http.StatusOK {
			t.Fatalf("codes=%d,%d", first.Code, second.Code)
		}
		if stub.calls != 1 {
			t.Fatalf("service called %d times", stub.calls)
		}
		if second.Header().Get(headerReplayed) != "true" || second.Body.String() != first.Body.String() {
			t.Fatalf("replay mismatch: %q vs %q", second.Body.String(), first.Body.String())
		}
	})

	t.Run("releases_key_when_nothing_committed", func(t *testing.T) {
		store := services.NewMemoryIdempotencyStore(time.Minute, time.Hour)
		stub := &stubBulk{res: &bulk.Result{Kind: bulk.KindValidationFailed, Total: 1, EntryErrors: []bulk.EntryError{{Entry: 0, Errors: []string{"date is required"}}}}}
		r := newTestEngine(user, func(r *gin.Engine) {
			r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), stub, store).Insert)
		})
		hdr := map[string]string{headerIdempotencyKey: "retry-me"}
		do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, hdr)
		do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, hdr)
		if stub.calls != 2 {
			t.Fatalf("service called %d times, want 2", stub.calls)
		}
	})

	t.Run("partial_commit_is_remembered", func(t *testing.T) {
		store := services.NewMemoryIdempotencyStore(time.Minute, time.Hour)
		stub := &stubBulk{res: &bulk.Result{Kind: bulk.KindInsertFailed, Total: 200, Committed: 100, Failure: bulk.ErrInfrastructure}}
		r := newTestEngine(user, func(r *gin.Engine) {
			r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), stub, store).Insert)
		})
		hdr := map[string]string{headerIdempotencyKey: "partial"}
		do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, hdr)
		rec := do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, hdr)
		if stub.calls != 1 || rec.Code != http.StatusInternalServerError {
			t.Fatalf("calls=%d code=%d", stub.calls, rec.Code)
		}
	})

	t.Run("in_flight_conflict", func(t *testing.T) {
		store := services.NewMemoryIdempotencyStore(time.Minute, time.Hour)
		if _, err := store.Begin(ctx, user, "busy"); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		stub := &stubBulk{res: &bulk.Result{Kind: bulk.KindOK}}
		r := newTestEngine(user, func(r *gin.Engine) {
			r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), stub, store).Insert)
		})
		rec := do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, map[string]string{headerIdempotencyKey: "busy"})
		if rec.Code != http.StatusConflict || decode(t, rec)["code"] != "submission_in_progress" {
			t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
		}
		if stub.calls != 0 {
			t.Fatalf("service called %d times", stub.calls)
		}
	})

	t.Run("key_too_long", func(t *testing.T) {
		store := services.NewMemoryIdempotencyStore(time.Minute, time.Hour)
		stub := &stubBulk{res: &bulk.Result{Kind: bulk.KindOK}}
		r := newTestEngine(user, func(r *gin.Engine) {
			r.POST("/api/activities/bulk", NewBulkHandler(testLogger(t), stub, store).Insert)
		})
		rec := do(r, http.MethodPost, "/api/activities/bulk", `{"entries":[]}`, map[string]string{headerIdempotencyKey: strings.Repeat("k", 129)})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", rec.Code)
		}
	})
}
