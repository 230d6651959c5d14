package submit

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.Nil(t, Form{TeamName: "a", CodeFile: "b"}.Validate())

	fe := Form{}.Validate()
	require.True(t, fe.Has(FieldTeamName))
	require.True(t, fe.Has(FieldCodeFile))
	require.Equal(t, "codefile: required, teamname: required", fe.Error())

	fe = Form{TeamName: "rocket"}.Validate()
	require.False(t, fe.Has(FieldTeamName))
	require.True(t, fe.Has(FieldCodeFile))
}

func TestValues_ReadsCodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(path, []byte("int main() { return 0; }\n"), 0o644))

	v := Form{TeamName: "rocket", CodeFile: path}.Values()
	require.Equal(t, "rocket", v.Get(FieldTeamName))
	require.Equal(t, "int main() { return 0; }\n", v.Get(FieldCodeFile))

	v = Form{TeamName: "rocket", CodeFile: "print('hi')"}.Values()
	require.Equal(t, "print('hi')", v.Get(FieldCodeFile))
}

type recordingPoster struct {
	action string
	vals   url.Values
	err    error
	calls  int
}

func (p *recordingPoster) PostForm(_ context.Context, action string, vals url.Values) error {
	p.calls++
	p.action, p.vals = action, vals
	return p.err
}

func TestSubmit(t *testing.T) {
	p := &recordingPoster{}
	s := NewSubmitter(p, "")

	require.NoError(t, s.Submit(context.Background(), Form{TeamName: "rocket", CodeFile: "x"}))
	require.Equal(t, DefaultAction, p.action)
	require.Equal(t, "rocket", p.vals.Get(FieldTeamName))
}

func TestSubmit_InvalidSendsNothing(t *testing.T) {
	p := &recordingPoster{}
	s := NewSubmitter(p, "/go")

	err := s.Submit(context.Background(), Form{TeamName: "rocket"})
	require.ErrorIs(t, err, ErrInvalid)
	require.Zero(t, p.calls)

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.True(t, fe.Has(FieldCodeFile))
	require.False(t, fe.Has(FieldTeamName))
}

func TestSubmit_PostFailure(t *testing.T) {
	p := &recordingPoster{err: errors.New("502")}
	s := NewSubmitter(p, "/go")

	err := s.Submit(context.Background(), Form{TeamName: "rocket", CodeFile: "x"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalid)
	require.Equal(t, "/go", p.action)
}
