package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/geocoder89/shopapi/internal/actorctx"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestObserveDB_CountsErrorsButNotMisses(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.find_by_email", func() error { return user.ErrNotFound })
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.find_by_email", "unknown")); got != 0 {
		t.Fatalf("miss counted as error: %v", got)
	}

	err := p.ObserveDB("users.create", func() error {
		return fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	})
	if err == nil {
		t.Fatalf("ObserveDB must return the wrapped error")
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count = %v, want 1", got)
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23503"}, "foreign_key_violation"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{errors.New("context deadline exceeded"), "timeout"},
		{errors.New("connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Fatalf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveRejection(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveRejection(401, "missing_token")
	p.ObserveRejection(401, "missing_token")

	if got := testutil.ToFloat64(p.AuthRejections.WithLabelValues("401", "missing_token")); got != 2 {
		t.Fatalf("rejections = %v, want 2", got)
	}
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}

	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id = %v, want %s", line["trace_id"], span.SpanContext().TraceID())
	}
	if _, ok := line["span_id"]; !ok {
		t.Fatalf("span_id missing: %v", line)
	}
}

func TestLogger_AddsCallerIdentity(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithIdentity(context.Background(), actorctx.Identity{UserID: "u-1", Role: user.RoleCustomer})
	log.InfoContext(ctx, "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["user_id"] != "u-1" {
		t.Fatalf("user_id = %v, want u-1", line["user_id"])
	}
}

func TestObserveCacheLookup(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveCacheLookup("hit")
	p.ObserveCacheLookup("miss")
	p.ObserveCacheLookup("hit")

	if got := testutil.ToFloat64(p.CacheLookups.WithLabelValues("hit")); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}
}

func TestSampler(t *testing.T) {
	if got := sampler(0).Description(); !strings.Contains(got, "AlwaysOnSampler") {
		t.Fatalf("sampler(0) = %s", got)
	}
	if got := sampler(0.25).Description(); !strings.Contains(got, "TraceIDRatioBased{0.25}") {
		t.Fatalf("sampler(0.25) = %s", got)
	}
}
