package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/dom/htmldom"
	"github.com/vango-dev/reconcile/pkg/protocol"
	"github.com/vango-dev/reconcile/pkg/vdom"
	"github.com/vango-dev/reconcile/pkg/vtest"
)

const (
	oldMarkup = `<ul class="list"><li>a</li><li>b</li><li>c</li></ul>`
	newMarkup = `<ul class="list done"><li>a</li><li>B</li></ul>`
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDiffText(t *testing.T) {
	oldPath := writeFile(t, "old.html", oldMarkup+"\n")
	newPath := writeFile(t, "new.html", newMarkup+"\n")

	out, err := run(t, "diff", oldPath, newPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{
		`update_attributes [] {class="list done"}`,
		`replace [1 0] "B"`,
		`delete [2]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	same, err := run(t, "diff", oldPath, oldPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if strings.TrimSpace(same) != "no changes" {
		t.Errorf("identical diff output = %q", same)
	}
}

func TestDiffJSON(t *testing.T) {
	oldPath := writeFile(t, "old.html", oldMarkup)
	newPath := writeFile(t, "new.html", newMarkup)

	out, err := run(t, "diff", "--format", "json", oldPath, newPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	got, err := protocol.DecodePatchesJSON([]byte(out))
	if err != nil {
		t.Fatalf("DecodePatchesJSON: %v", err)
	}

	a, _ := htmldom.ParseSnapshot(oldMarkup)
	b, _ := htmldom.ParseSnapshot(newMarkup)
	if d := cmp.Diff(vdom.Diff(a, b), got, cmpopts.EquateEmpty()); d != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", d)
	}
}

func TestDiffUnknownFormat(t *testing.T) {
	p := writeFile(t, "a.html", "<p></p>")
	if _, err := run(t, "diff", "--format", "yaml", p, p); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestApplyJSONAndBinary(t *testing.T) {
	docPath := writeFile(t, "doc.html", oldMarkup)
	a, _ := htmldom.ParseSnapshot(oldMarkup)
	b, _ := htmldom.ParseSnapshot(newMarkup)
	patches := vdom.Diff(a, b)

	jsonData, err := protocol.EncodePatchesJSON(patches)
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"json":   writeFile(t, "patch.json", string(jsonData)),
		"binary": writeFile(t, "patch.bin", string(protocol.EncodePatches(9, patches))),
	}

	for name, patchPath := range files {
		t.Run(name, func(t *testing.T) {
			out, err := run(t, "apply", docPath, patchPath)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if got := strings.TrimSpace(out); got != newMarkup {
				t.Errorf("apply output = %q, want %q", got, newMarkup)
			}
		})
	}
}

func TestApplyDesync(t *testing.T) {
	docPath := writeFile(t, "doc.html", "<div></div>")
	patchPath := writeFile(t, "patch.json", `[{"path":[5],"op":"delete"}]`)

	_, err := run(t, "apply", docPath, patchPath)
	if !stderrors.Is(err, dom.ErrDesync) {
		t.Errorf("error = %v, want desync", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
	}{
		{"edit", oldMarkup, newMarkup},
		{"from empty", "", newMarkup},
		{"to empty", oldMarkup, ""},
		{"root tag", "<div>x</div>", "<section><p>x</p></section>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "verify", writeFile(t, "old.html", tt.old), writeFile(t, "new.html", tt.new))
			if err != nil {
				t.Fatalf("verify: %v\n%s", err, out)
			}
			if !strings.Contains(out, "✓") {
				t.Errorf("output = %q", out)
			}
		})
	}
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q", out)
	}
}

func TestNewServerFromConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.Title = "Demo"
	cfg.Metrics.Enabled = true
	cfg.Archive.Backend = "memory"
	cfg.Session.EventKinds = []string{"click", "input"}

	srv, err := newServer(context.Background(), cfg, newDemo)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	if srv.Config().MetricsPath != "/metrics" {
		t.Errorf("MetricsPath = %q", srv.Config().MetricsPath)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Demo</title>", "Count: 0", "Hello, stranger"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestOpenArchive(t *testing.T) {
	store, err := openArchive(context.Background(), config.ArchiveConfig{})
	if err != nil || store != nil {
		t.Errorf("disabled archive = %v, %v", store, err)
	}
	store, err = openArchive(context.Background(), config.ArchiveConfig{Backend: "memory"})
	if err != nil || store == nil {
		t.Errorf("memory archive = %v, %v", store, err)
	}
}

func TestDemoComponent(t *testing.T) {
	h := vtest.Mount(t, newDemo())

	h.Click(3)
	h.Click(3)
	h.Click(2)
	h.Input("Ada", 4)

	h.ExpectMarkup(`<div class="demo"><h1>Counter</h1><p class="count">Count: 1</p>` +
		`<button>-1</button><button>+1</button><input type="text" placeholder="Your name"/>` +
		`<p>Hello, Ada</p></div>`)
	h.ExpectInSync()
}
