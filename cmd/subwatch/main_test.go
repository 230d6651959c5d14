package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-go-golems/subwatch/pkg/fakeserver"
	"github.com/go-go-golems/subwatch/pkg/submit"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	noFile := filepath.Join(t.TempDir(), "none.yml")
	root.SetArgs(append([]string{"--config", noFile, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, _, err := execute(t, "config", "--base-url", "http://judge:9000", "--marker-mode", "strict")
	require.NoError(t, err)
	require.Contains(t, out, "base-url: http://judge:9000")
	require.Contains(t, out, "marker-mode: strict")
	require.Contains(t, out, "error-sleep: 10s")
}

func TestConfigCommand_Invalid(t *testing.T) {
	_, _, err := execute(t, "config", "--marker-mode", "fuzzy")
	require.Error(t, err)
}

func TestSubmitCommand(t *testing.T) {
	fs := fakeserver.New()
	ts := httptest.NewServer(fs.Handler())
	defer ts.Close()
	defer fs.Close()

	code := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(code, []byte("int main() {}\n"), 0o644))

	out, _, err := execute(t, "submit", "--base-url", ts.URL, "-t", "rocket", "-f", code)
	require.NoError(t, err)
	require.Contains(t, out, "submitted")

	subs := fs.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, "int main() {}\n", subs[0].Code)
	require.Equal(t, fakeserver.StartCursor+1, fs.Notifier().Cursor())
}

func TestSubmitCommand_MissingFieldFails(t *testing.T) {
	_, _, err := execute(t, "submit", "--base-url", "http://127.0.0.1:1", "-t", "rocket")
	require.Error(t, err)
	require.True(t, errors.Is(err, submit.ErrInvalid))
}

func TestSubmitCommand_ServerFailureIsReported(t *testing.T) {
	fs := fakeserver.New()
	fs.FailNext(submit.DefaultAction, 1)
	ts := httptest.NewServer(fs.Handler())
	defer ts.Close()
	defer fs.Close()

	_, errOut, err := execute(t, "submit", "--base-url", ts.URL, "-t", "rocket", "-f", "print(1)")
	require.NoError(t, err)
	require.Contains(t, errOut, "submission not confirmed")
	require.Empty(t, fs.Submissions())
}
