package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

var (
	memvfsBin string
	projRoot  string
	testEnv   *E2ETestEnvironment
)

func TestMain(m *testing.M) {
	os.Exit(runMain(m))
}

func runMain(m *testing.M) int {
	// Build memvfs binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "memvfs-bin")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpBinDir)

	memvfsBin = filepath.Join(tmpBinDir, "memvfs")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", memvfsBin, "./cmd")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	testEnv, err = NewE2ETestEnvironment(memvfsBin)
	if err != nil {
		panic(err)
	}
	defer testEnv.Close()

	return m.Run()
}

func TestE2EStatHTTPSource(t *testing.T) {
	textFile := NewTestFile("/simple-text").
		WithTextContent("Hello, memvfs! This is a simple test file.").
		Build()
	testEnv.RegisterFiles([]*TestFileSpec{textFile})

	res := testEnv.Run(t, `
version: "1"
root:
  name: foo
  children:
    - name: test.txt
      mtime: 300
      source: {type: http, url: "%s/simple-text"}
`, "stat", "vfs://foo/test.txt")
	if res.err != nil {
		t.Fatalf("stat failed: %v\nstderr: %s", res.err, res.stderr)
	}

	expected := fmt.Sprintf("size: %d\n", len("Hello, memvfs! This is a simple test file."))
	if !strings.Contains(res.stdout, expected) {
		t.Fatalf("size mismatch:\nexpected: %q\ngot:      %q", expected, res.stdout)
	}
	if !strings.Contains(res.stdout, "mtime: 300\n") {
		t.Fatalf("mtime mismatch: %q", res.stdout)
	}
}

func TestE2EMultipleSources(t *testing.T) {
	files := []*TestFileSpec{
		NewTestFile("/text-content").
			WithTextContent("Text file content for testing.").
			Build(),
		NewTestFile("/binary-content").
			WithBinaryContent(512). // 512 bytes of binary data
			Build(),
	}
	testEnv.RegisterFiles(files)

	res := testEnv.Run(t, `
version: "1"
root:
  name: foo
  children:
    - name: text.txt
      source: {type: http, url: "%[1]s/text-content"}
    - name: bin
      children:
        - name: binary.bin
          perms: "0755"
          source: {type: http, url: "%[1]s/binary-content"}
    - name: inline.txt
      source: {type: text, text: "inline"}
`, "ls", "vfs://foo")
	if res.err != nil {
		t.Fatalf("ls failed: %v\nstderr: %s", res.err, res.stderr)
	}

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 entries, got %d: %q", len(lines), res.stdout)
	}
	// dirs are added before files
	wantNames := []string{"bin", "text.txt", "inline.txt"}
	for i, line := range lines {
		fields := strings.Fields(line)
		if got := fields[len(fields)-1]; got != wantNames[i] {
			t.Errorf("entry %d: expected %s, got %s", i, wantNames[i], got)
		}
	}

	res = testEnv.Run(t, `
version: "1"
root:
  name: foo
  children:
    - name: binary.bin
      perms: "0755"
      source: {type: http, url: "%s/binary-content"}
`, "stat", "vfs://foo/binary.bin")
	if res.err != nil {
		t.Fatalf("stat failed: %v\nstderr: %s", res.err, res.stderr)
	}
	for _, want := range []string{"size: 512\n", "blocks: 1\n", "mode: 100755\n", "executable: true\n"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("expected %q in %q", want, res.stdout)
		}
	}
}

func TestE2EHTTPErrors(t *testing.T) {
	errorFile := NewTestFile("/not-found").
		WithError(404).
		Build()
	testEnv.RegisterFiles([]*TestFileSpec{errorFile})

	res := testEnv.Run(t, `
version: "1"
root:
  name: foo
  children:
    - name: missing.txt
      source: {type: http, url: "%s/not-found"}
`, "tree")
	if res.err == nil {
		t.Fatalf("expected failure for a 404 source, got output %q", res.stdout)
	}
	if !strings.Contains(res.stderr, "404") {
		t.Fatalf("expected status in error output, got %q", res.stderr)
	}
}

func TestE2EUnlinkAndSplit(t *testing.T) {
	def := `
version: "1"
root:
  name: foo
  children:
    - name: bar
      children:
        - name: baz1
          source: {type: text, text: "baz 1"}
`
	res := testEnv.Run(t, def, "unlink", "--show", "vfs://foo/bar/baz1")
	if res.err != nil {
		t.Fatalf("unlink failed: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.HasPrefix(res.stdout, "removed vfs://foo/bar/baz1\n") {
		t.Fatalf("unexpected unlink output %q", res.stdout)
	}
	if strings.Contains(res.stdout, "baz1 (") {
		t.Fatalf("unlinked file still rendered: %q", res.stdout)
	}

	res = testEnv.Run(t, def, "split", "vfs://foo/bar/never/created")
	if res.err != nil {
		t.Fatalf("split failed: %v", res.err)
	}
	if res.stdout != "vfs://foo/bar/never\ncreated\n" {
		t.Fatalf("unexpected split output %q", res.stdout)
	}
}

func TestE2EExitCode(t *testing.T) {
	res := testEnv.Run(t, `{version: "1", root: {name: foo}}`, "stat", "vfs://foo/nope")
	var exitErr *exec.ExitError
	if !errors.As(res.err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", res.err)
	}
}

// E2ETestEnvironment serves mock http sources for definition files
type E2ETestEnvironment struct {
	MockServer *httptest.Server
	MemvfsBin  string
	BaseDir    string
	files      map[string]*TestFileSpec
	mux        *http.ServeMux
}

// TestFileSpec defines a served file's content and behavior
type TestFileSpec struct {
	path        string
	content     []byte
	contentType string
	errorCode   int // 0 = success, 404, 500, etc.
}

// TestFileBuilder provides a fluent API for creating test files
type TestFileBuilder struct {
	spec TestFileSpec
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// NewTestFile creates a new test file builder with the given path
func NewTestFile(path string) *TestFileBuilder {
	return &TestFileBuilder{
		spec: TestFileSpec{
			path:        path,
			contentType: "text/plain",
		},
	}
}

// WithTextContent sets text content and appropriate content type
func (b *TestFileBuilder) WithTextContent(content string) *TestFileBuilder {
	b.spec.content = []byte(content)
	b.spec.contentType = "text/plain"
	return b
}

// WithBinaryContent generates binary content of the specified size
func (b *TestFileBuilder) WithBinaryContent(size int) *TestFileBuilder {
	b.spec.content = make([]byte, size)
	for i := range b.spec.content {
		b.spec.content[i] = byte(i % 256)
	}
	b.spec.contentType = "application/octet-stream"
	return b
}

// WithError makes the file return an HTTP error status
func (b *TestFileBuilder) WithError(statusCode int) *TestFileBuilder {
	b.spec.errorCode = statusCode
	return b
}

// Build creates the final TestFileSpec
func (b *TestFileBuilder) Build() *TestFileSpec {
	return &b.spec
}

// NewE2ETestEnvironment creates a shared test environment with mock HTTP server
func NewE2ETestEnvironment(memvfsBinary string) (*E2ETestEnvironment, error) {
	baseDir, err := os.MkdirTemp("", "memvfs-e2e-tests")
	if err != nil {
		return nil, err
	}

	env := &E2ETestEnvironment{
		MemvfsBin: memvfsBinary,
		BaseDir:   baseDir,
		files:     make(map[string]*TestFileSpec),
		mux:       http.NewServeMux(),
	}
	env.MockServer = httptest.NewServer(env.mux)
	return env, nil
}

// Close cleans up the test environment
func (env *E2ETestEnvironment) Close() {
	if env.MockServer != nil {
		env.MockServer.Close()
	}
	if env.BaseDir != "" {
		_ = os.RemoveAll(env.BaseDir) // Best effort cleanup
	}
}

// RegisterFiles adds test files to the mock server. Paths already served
// are skipped.
func (env *E2ETestEnvironment) RegisterFiles(files []*TestFileSpec) {
	for _, file := range files {
		if _, ok := env.files[file.path]; ok {
			continue
		}
		env.files[file.path] = file
		env.mux.HandleFunc(file.path, func(w http.ResponseWriter, r *http.Request) {
			env.handleMockRequest(w, r, file)
		})
	}
}

func (env *E2ETestEnvironment) handleMockRequest(w http.ResponseWriter, r *http.Request, file *TestFileSpec) {
	if file.errorCode != 0 {
		http.Error(w, fmt.Sprintf("Mock error %d", file.errorCode), file.errorCode)
		return
	}

	w.Header().Set("Content-Type", file.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.content)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(file.content); err != nil {
		panic(fmt.Sprintf("Failed to write mock response: %v", err))
	}
}

// Run writes the definition, with %s replaced by the mock server url, and
// runs the binary against it with args
func (env *E2ETestEnvironment) Run(t *testing.T, defTemplate string, args ...string) runResult {
	t.Helper()

	def := defTemplate
	if strings.Contains(defTemplate, "%") {
		def = fmt.Sprintf(defTemplate, env.MockServer.URL)
	}
	defPath := filepath.Join(t.TempDir(), "tree.yaml")
	if err := os.WriteFile(defPath, []byte(def), 0o644); err != nil {
		t.Fatalf("failed to write definition: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(env.MemvfsBin, append([]string{"-t", defPath}, args...)...)
	cmd.Dir = env.BaseDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
