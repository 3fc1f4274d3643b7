package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/livetree/internal/config"
	"github.com/vango-dev/livetree/internal/errors"
	"github.com/vango-dev/livetree/pkg/export"
	"github.com/vango-dev/livetree/pkg/snapshot"
)

type result struct {
	stdout, stderr string
	err            error
}

func run(t *testing.T, c *cli, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if c == nil {
		c = newCLI(&stdout, &stderr)
	} else {
		c.stdout, c.stderr = &stdout, &stderr
	}
	cmd := c.rootCmd()
	cmd.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	c.close()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %v (%T) is not coded", err, err)
	}
	return e.Code
}

const page = `tag: div
class: [card, wide]
children:
  - tag: h1
    children: [Hello]
  - tag: button
    on: {click: inc}
    children: ["+"]
`

func TestRender(t *testing.T) {
	path := writeFile(t, "page.yaml", page)
	r := run(t, nil, "render", path)
	if r.err != nil {
		t.Fatal(r.err)
	}
	want := `<div class="card wide"><h1>Hello</h1><button>+</button></div>` + "\n"
	if r.stdout != want {
		t.Errorf("stdout = %q, want %q", r.stdout, want)
	}
}

func TestRenderIDs(t *testing.T) {
	path := writeFile(t, "page.yaml", page)
	r := run(t, nil, "render", "--ids", path)
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.stdout, `<h1 data-lt-id="`) {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "tag: div\nchildren: [a, b\n", "E101"},
		{"missing tag", "attrs: {id: x}\n", "E102"},
		{"bad attribute", "tag: div\nattrs: {id: [1, 2]}\n", "E104"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.yaml", tt.content)
			r := run(t, nil, "render", path)
			if got := errorCode(t, r.err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, r.err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		r := run(t, nil, "render", filepath.Join(t.TempDir(), "nope.yaml"))
		if got := errorCode(t, r.err); got != "E100" {
			t.Errorf("code = %s, want E100", got)
		}
	})
}

type fakeS3 struct {
	key, body, contentType string
	err                    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.key, f.body, f.contentType = aws.ToString(in.Key), string(body), aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func cliWithS3(api *fakeS3) *cli {
	c := newCLI(io.Discard, io.Discard)
	c.newS3 = func(export.ClientConfig) export.API { return api }
	return c
}

func TestRenderUpload(t *testing.T) {
	api := &fakeS3{}
	path := writeFile(t, "page.yaml", page)
	r := run(t, cliWithS3(api), "render", path, "--upload", "s3://site/pages")
	if r.err != nil {
		t.Fatal(r.err)
	}

	got := []string{api.key, api.body, api.contentType}
	want := []string{"pages/page.html", strings.TrimSuffix(r.stdout, "\n"), export.ContentType}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("upload (-want +got):\n%s", diff)
	}
	if !strings.Contains(r.stderr, "Uploaded s3://site/pages/page.html") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

func TestRenderUploadFromConfig(t *testing.T) {
	api := &fakeS3{}
	cfgPath := writeFile(t, config.FileName, `{"export": {"bucket": "site", "prefix": "out"}}`)
	path := writeFile(t, "page.yaml", page)
	r := run(t, cliWithS3(api), "--config", cfgPath, "render", path, "--export", "--name", "index.html")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if api.key != "out/index.html" {
		t.Errorf("key = %q, want out/index.html", api.key)
	}
}

func TestRenderUploadErrors(t *testing.T) {
	path := writeFile(t, "page.yaml", page)
	tests := []struct {
		name string
		api  *fakeS3
		args []string
		want string
	}{
		{"bad url", &fakeS3{}, []string{"--upload", "http://site"}, "E140"},
		{"no bucket", &fakeS3{}, []string{"--export"}, "E140"},
		{"put fails", &fakeS3{err: stderrors.New("denied")}, []string{"--upload", "s3://site/"}, "E141"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, cliWithS3(tt.api), append([]string{"render", path}, tt.args...)...)
			if got := errorCode(t, r.err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, r.err)
			}
		})
	}
}

const (
	before = `tag: div
children:
  - tag: span
    children: ["0"]
  - tag: button
    on: {click: inc}
    children: ["+"]
`
	after = `tag: div
children:
  - tag: span
    children: ["1"]
  - tag: button
    on: {click: inc}
    children: ["+"]
  - tag: p
    children: [done]
`
)

func TestDiff(t *testing.T) {
	oldPath := writeFile(t, "before.yaml", before)
	newPath := writeFile(t, "after.yaml", after)
	r := run(t, nil, "diff", oldPath, newPath)
	if r.err != nil {
		t.Fatal(r.err)
	}

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	if len(lines) < 4 {
		t.Fatalf("mutations:\n%s", r.stdout)
	}
	if !strings.Contains(lines[0], `text = "1"`) {
		t.Errorf("first mutation = %q, want a text update", lines[0])
	}
	for _, want := range []string{"= <p>", `= text "done"`} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("mutations do not contain %q:\n%s", want, r.stdout)
		}
	}
	if last := lines[len(lines)-1]; !strings.Contains(last, "append") {
		t.Errorf("last mutation = %q, want an append", last)
	}
	if strings.Contains(r.stdout, " on click") || strings.Contains(r.stdout, " off click") {
		t.Errorf("handler churn:\n%s", r.stdout)
	}
	if want := fmt.Sprintf("%d mutations", len(lines)); !strings.Contains(r.stderr, want) {
		t.Errorf("stderr = %q, want %q", r.stderr, want)
	}
}

func TestSnapshotStats(t *testing.T) {
	reg := snapshot.NewRegistry()
	n, err := snapshot.Parse([]byte(after), reg)
	if err != nil {
		t.Fatal(err)
	}
	elements, interactive := snapshotStats(n)
	if elements != 4 || interactive != 1 {
		t.Errorf("snapshotStats = %d, %d; want 4, 1", elements, interactive)
	}

	r := run(t, nil, "diff", writeFile(t, "before.yaml", before), writeFile(t, "after.yaml", after))
	if r.err != nil || !strings.Contains(r.stderr, "4 elements, 1 interactive") {
		t.Errorf("diff stderr = %q, %v", r.stderr, r.err)
	}
}

func TestDiffHTMLAndAll(t *testing.T) {
	oldPath := writeFile(t, "before.yaml", before)
	r := run(t, nil, "diff", "--all", "--html", oldPath, oldPath)
	if r.err != nil {
		t.Fatal(r.err)
	}
	build, rest, ok := strings.Cut(r.stdout, "---\n")
	if !ok || build == "" {
		t.Fatalf("stdout = %q", r.stdout)
	}
	want := `<div><span>0</span><button>+</button></div>` + "\n"
	if rest != want {
		t.Errorf("after --- = %q, want %q", rest, want)
	}
	if !strings.Contains(r.stderr, "No changes") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

func TestVersion(t *testing.T) {
	r := run(t, nil, "version", "--short")
	if r.err != nil || r.stdout != "dev\n" {
		t.Errorf("version --short = %q, %v", r.stdout, r.err)
	}
	r = run(t, nil, "version")
	if !strings.Contains(r.stdout, "Go version:") {
		t.Errorf("version = %q", r.stdout)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		cfg  string
		want string
	}{
		{"bad port", nil, `{"server": {"port": 70000}}`, "E122"},
		{"bad level flag", []string{"--log-level", "loud"}, `{}`, "E123"},
		{"bad format", nil, `{"log": {"format": "xml"}}`, "E123"},
		{"syntax", nil, `{"server": }`, "E120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeFile(t, config.FileName, tt.cfg)
			args := append([]string{"--config", cfgPath}, tt.args...)
			r := run(t, nil, append(args, "version")...)
			if got := errorCode(t, r.err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, r.err)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		r := run(t, nil, "--config", filepath.Join(t.TempDir(), "none.json"), "version")
		if got := errorCode(t, r.err); got != "E121" {
			t.Errorf("code = %s, want E121", got)
		}
	})
}

func TestLoggerFanout(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "livetree.log")
	cfg := config.New()
	cfg.Log.File = logPath

	var console bytes.Buffer
	logger, closer, err := newLogger(&console, cfg)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "n", 1)
	logger.Debug("hidden")
	closer.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || strings.Contains(string(data), "hidden") {
		t.Errorf("log file = %s", data)
	}
	if !strings.Contains(console.String(), "msg=hello") {
		t.Errorf("console = %q", console.String())
	}
}

func TestLoggerJSON(t *testing.T) {
	cfg := config.New()
	cfg.Log.Format = "JSON"
	cfg.Log.Level = "debug"

	var console bytes.Buffer
	logger, closer, err := newLogger(&console, cfg)
	if err != nil || closer != nil {
		t.Fatalf("newLogger: %v, closer %v", err, closer)
	}
	logger.Debug("x")
	if !strings.HasPrefix(console.String(), "{") {
		t.Errorf("console = %q", console.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}
}

func setupCLI(t *testing.T) *cli {
	t.Helper()
	c := newCLI(io.Discard, io.Discard)
	c.logLevel = "error"
	c.noColor = true
	if err := c.setup(); err != nil {
		t.Fatal(err)
	}
	c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(c.close)
	return c
}

func TestBuildLiveUnknownDemo(t *testing.T) {
	c := setupCLI(t)
	_, err := c.buildLive("chess", "", 0)
	if got := errorCode(t, err); got != "E161" {
		t.Errorf("code = %s, want E161", got)
	}
}

func TestBuildLiveMetrics(t *testing.T) {
	c := setupCLI(t)
	c.cfg.Metrics.Enabled = true

	app, err := c.buildLive("counter", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer app.stop()
	if err := app.root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), ">Counter</h1>") {
		t.Errorf("page = %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	app.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`livetree_render_passes_total{mode="materialize",root="counter",status="ok"} 1`,
		`livetree_http_requests_total{code="200",method="GET",route="/"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics do not contain %q", want)
		}
	}
}

func TestBuildLiveFile(t *testing.T) {
	c := setupCLI(t)
	path := writeFile(t, "page.yaml", page)

	app, err := c.buildLive("", path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer app.stop()
	if err := app.root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fragment", nil))
	if !strings.Contains(rec.Body.String(), ">Hello</h1>") {
		t.Errorf("fragment = %s", rec.Body)
	}

	// A broken edit keeps the last good snapshot.
	if err := os.WriteFile(path, []byte("tag: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := app.root.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	app.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fragment", nil))
	if !strings.Contains(rec.Body.String(), ">Hello</h1>") {
		t.Errorf("fragment after broken edit = %s", rec.Body)
	}
}
