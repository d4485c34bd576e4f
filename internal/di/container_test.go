package di_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/afero"

	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/di"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

func newSite(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"template.html":    "<html><title>{{ Title }}</title><body>{{ Content }}</body></html>",
		"content/index.md": "# Home\n\nWelcome **home**\n",
		"static/site.css":  "body {}\n",
	}
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return fs
}

func TestContainerBuildsSiteThroughCommands(t *testing.T) {
	fs := newSite(t)
	rec := newRecordingProvider()

	container, err := di.NewContainer(runtimeconfig.DefaultConfig(),
		di.WithFilesystem(fs),
		di.WithLoggerProvider(rec),
		di.WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	var envelope sitecmd.ResultEnvelope
	err = container.CommandHandlers().BuildSite.Execute(context.Background(), sitecmd.BuildSiteCommand{
		ResultCallback: func(env sitecmd.ResultEnvelope) { envelope = env },
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if envelope.Result == nil || envelope.Result.PagesBuilt != 1 || envelope.Result.StaticFiles != 1 {
		t.Fatalf("unexpected result %#v", envelope.Result)
	}

	page, err := afero.ReadFile(fs, "docs/index.html")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "<html><title>Home</title><body><div><h1>Home</h1><p>Welcome <b>home</b></p></div></body></html>"
	if string(page) != want {
		t.Fatalf("unexpected page:\n got: %s\nwant: %s", page, want)
	}

	entry := rec.find("generator.build.completed")
	if entry == nil {
		t.Fatalf("expected generator.build.completed log entry, got %#v", rec.entries)
	}
	if got := entry.fields["module"]; got != "mdsite.generator" {
		t.Fatalf("expected module field mdsite.generator, got %v", got)
	}
	if entry.fields["build_id"] == nil || entry.fields["build_id"] == "" {
		t.Fatalf("expected build id field, got %v", entry.fields)
	}
	if rec.find("command.execute.success") == nil {
		t.Fatal("expected command telemetry entry")
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.OutputDir = cfg.Markdown.ContentDir

	_, err := di.NewContainer(cfg, di.WithFilesystem(afero.NewMemMapFs()))
	if !errors.Is(err, runtimeconfig.ErrOutputOverlapsContent) {
		t.Fatalf("expected ErrOutputOverlapsContent, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestContainerConsoleProviderHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "debug"

	container, err := di.NewContainer(cfg, di.WithFilesystem(newSite(t)), di.WithLogWriter(&buf))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, err := container.GeneratorService().Build(context.Background(), generatorOptions()); err != nil {
		t.Fatalf("build: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "DEBUG generator.page.written") {
		t.Fatalf("expected debug page entry, got:\n%s", out)
	}
	if !strings.Contains(out, "INFO generator.build.completed") {
		t.Fatalf("expected completion entry, got:\n%s", out)
	}
}

func TestContainerSelectsGoldmarkEngine(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Engine = runtimeconfig.EngineGoldmark

	container, err := di.NewContainer(cfg, di.WithFilesystem(newSite(t)), di.WithLoggerProvider(newRecordingProvider()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	html, err := container.MarkdownService().Render(context.Background(), []byte("# Title\n\n*em*"), interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(html), "<em>em</em>") {
		t.Fatalf("expected CommonMark emphasis, got %s", html)
	}
}

type recordingProvider struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{
		provider: p,
		fields:   map[string]any{"logger": name},
	}
}

func (p *recordingProvider) record(entry recordedEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if p.entries[i].msg == msg {
			return &p.entries[i]
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	fields   map[string]any
}

var _ interfaces.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("TRACE", msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("FATAL", msg, args...) }

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) log(level, msg string, args ...any) {
	fields := make(map[string]any, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.provider.record(recordedEntry{level: level, msg: msg, fields: fields})
}

func generatorOptions() generator.BuildOptions {
	return generator.BuildOptions{}
}
