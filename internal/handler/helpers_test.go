package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/metrics"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository/sqlite"
	"github.com/sakif/devconnector/internal/service"
)

// testEnv wires real services to an in-memory database, so handler tests
// exercise the whole request path below the router.
type testEnv struct {
	profiles *ProfileHandler
	posts    *PostHandler
	alice    *model.User
	bob      *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := metrics.NewCollector(prometheus.NewRegistry())

	env := &testEnv{
		profiles: NewProfileHandler(service.NewProfileService(db, db, rec, logger), logger),
		posts:    NewPostHandler(service.NewPostService(db, db, rec, logger), logger),
		alice:    &model.User{Name: "Alice", Email: "alice@example.com", AvatarURL: "https://img.example/a.png"},
		bob:      &model.User{Name: "Bob", Email: "bob@example.com", AvatarURL: "https://img.example/b.png"},
	}
	require.NoError(t, db.CreateUser(context.Background(), env.alice))
	require.NoError(t, db.CreateUser(context.Background(), env.bob))
	return env
}

// call runs h with an optional JSON body, caller and chi URL params given as
// key/value pairs.
func call(t *testing.T, h http.HandlerFunc, method, userID string, body any, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(buf)
		}
	}

	req := httptest.NewRequest(method, "/", r)
	ctx := req.Context()
	if userID != "" {
		ctx = auth.ContextWithUserID(ctx, userID)
	}
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}
