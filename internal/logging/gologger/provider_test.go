package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestProviderReturnsNamedLogger(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	logger := p.GetLogger("blog.posts")
	if logger == nil {
		t.Fatal("expected logger")
	}
	logging.WithFields(logger, map[string]any{"module": "blog.posts"}).Debug("adapter.ready")
}

func TestAdapterClonesFieldsAndForwardsContext(t *testing.T) {
	stub := &stubLogger{}
	adapted := wrap(stub)
	fieldsLogger, ok := adapted.(interfaces.FieldsLogger)
	if !ok {
		t.Fatalf("expected adapter to carry fields, got %T", adapted)
	}

	fields := map[string]any{"slug": "first"}
	fieldsLogger.WithFields(fields)
	fields["slug"] = "second"
	if len(stub.fields) != 1 || stub.fields[0]["slug"] != "first" {
		t.Fatalf("expected cloned fields, got %v", stub.fields)
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "v")
	adapted.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context to be forwarded")
	}

	adapted.Info("x")
	adapted.Error("y")
	if len(stub.calls) != 2 || stub.calls[0] != "info" || stub.calls[1] != "error" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}
}

func TestWithContextAttachesRequestFields(t *testing.T) {
	stub := &stubLogger{}
	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "req-1"})

	wrap(stub).WithContext(ctx)
	if len(stub.contexts) != 1 {
		t.Fatalf("expected context to be forwarded")
	}
	if len(stub.fields) != 1 || stub.fields[0]["request_id"] != "req-1" {
		t.Fatalf("expected request fields, got %v", stub.fields)
	}
}

func TestGLogLevelMapping(t *testing.T) {
	if glogLevel("warning") != glog.Warn {
		t.Fatalf("expected warning to map to glog.Warn")
	}
	if glogLevel("verbose") != "" {
		t.Fatalf("expected unknown level to map to empty")
	}
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	s.fields = append(s.fields, fields)
	return s
}
