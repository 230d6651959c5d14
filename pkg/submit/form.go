// Package submit validates and posts the submission form.
package submit

import (
	"context"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultAction = "/submit"

	FieldTeamName = "teamname"
	FieldCodeFile = "codefile"
)

var ErrInvalid = errors.New("invalid submission")

type Form struct {
	TeamName string
	CodeFile string
}

// FieldErrors maps a field name to its problem.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, ", ")
}

// Is makes field errors match ErrInvalid.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalid
}

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Validate only checks that both fields are filled in.
func (f Form) Validate() FieldErrors {
	fe := FieldErrors{}
	if f.TeamName == "" {
		fe[FieldTeamName] = "required"
	}
	if f.CodeFile == "" {
		fe[FieldCodeFile] = "required"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Values encodes the form. When CodeFile names a readable file its
// contents are sent, otherwise the field is sent as typed.
func (f Form) Values() url.Values {
	code := f.CodeFile
	if b, err := os.ReadFile(f.CodeFile); err == nil {
		code = string(b)
	}
	return url.Values{
		FieldTeamName: {f.TeamName},
		FieldCodeFile: {code},
	}
}

type Poster interface {
	PostForm(ctx context.Context, action string, vals url.Values) error
}

type Submitter struct {
	Poster Poster
	Action string
	Log    zerolog.Logger
}

func NewSubmitter(p Poster, action string) *Submitter {
	if action == "" {
		action = DefaultAction
	}
	return &Submitter{Poster: p, Action: action, Log: zerolog.Nop()}
}

// Submit validates and posts the form. A validation failure returns the
// FieldErrors, which match ErrInvalid; nothing is sent in that case.
func (s *Submitter) Submit(ctx context.Context, f Form) error {
	if fe := f.Validate(); fe != nil {
		return errors.WithStack(fe)
	}
	if err := s.Poster.PostForm(ctx, s.Action, f.Values()); err != nil {
		s.Log.Warn().Err(err).Str("team", f.TeamName).Msg("submission failed")
		return errors.Wrap(err, "post submission")
	}
	s.Log.Info().Str("team", f.TeamName).Msg("submission sent")
	return nil
}
