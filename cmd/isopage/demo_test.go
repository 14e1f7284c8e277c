package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/vango-dev/isopage"
	"github.com/vango-dev/isopage/internal/config"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/render"
)

func newDemoApp(t *testing.T) *isopage.App {
	t.Helper()
	app, err := isopage.New(config.New())
	if err != nil {
		t.Fatal(err)
	}
	registerDemo(app)
	t.Cleanup(func() { app.Close() })
	return app
}

func TestDemoPages(t *testing.T) {
	app := newDemoApp(t)

	tests := []struct {
		target string
		status int
		want   []string
	}{
		{"/", http.StatusOK, []string{"<title>Articles</title>", `href="/articles/2"`, "Hydration", "<li"}},
		{"/articles/1", http.StatusOK, []string{"<title>Rendering twice</title>", "same view renders", "Article"}},
		{"/articles/99", http.StatusNotFound, []string{"<title>Not found</title>"}},
		{"/posts/3", http.StatusFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			status, markup, err := app.Render(context.Background(), tt.target)
			if err != nil {
				t.Fatal(err)
			}
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			for _, want := range tt.want {
				if !strings.Contains(markup, want) {
					t.Errorf("markup missing %q", want)
				}
			}
		})
	}
}

func TestArticleViewMalformedState(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	state := page.State{
		"title":   map[string]any{"unexpected": true},
		"article": map[string]any{"body": "Still rendered."},
	}
	markup, err := render.NewRenderer(render.RendererConfig{SkipHIDs: true}).RenderToString(articleView(state))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(markup, "Still rendered.") {
		t.Errorf("markup = %q", markup)
	}
	if !strings.Contains(logs.String(), "decode page state") {
		t.Errorf("decode failure not logged: %q", logs.String())
	}

	var s articleState
	if !decodeState(page.State{"title": "ok"}, &s) || s.Title != "ok" {
		t.Errorf("decodeState = %+v", s)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := versionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Errorf("version = %q", got)
	}
}
