package folio

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type mockComponent struct {
	renderResult  string
	renderErr     error
	capturedScope *Scope
}

func (m *mockComponent) Render(s *Scope) (*html.Node, error) {
	m.capturedScope = s
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	return Text(m.renderResult), nil
}

func TestErrorBoundary_Render(t *testing.T) {
	tests := []struct {
		name          string
		page          *mockComponent
		fallback      *mockComponent
		wantErr       bool
		wantResult    string
		wantStatus    int
		wantErrorsLen int
	}{
		{
			name:       "successful render - no errors",
			page:       &mockComponent{renderResult: "success"},
			fallback:   &mockComponent{renderResult: "fallback"},
			wantResult: "success",
		},
		{
			name:          "page error - renders fallback",
			page:          &mockComponent{renderErr: errors.New("render failed")},
			fallback:      &mockComponent{renderResult: "fallback"},
			wantResult:    "fallback",
			wantStatus:    http.StatusInternalServerError,
			wantErrorsLen: 1,
		},
		{
			name:          "joined errors - fallback sees each",
			page:          &mockComponent{renderErr: errors.Join(errors.New("error1"), errors.New("error2"))},
			fallback:      &mockComponent{renderResult: "fallback"},
			wantResult:    "fallback",
			wantStatus:    http.StatusInternalServerError,
			wantErrorsLen: 2,
		},
		{
			name:    "no fallback - returns error",
			page:    &mockComponent{renderErr: errors.New("render failed")},
			wantErr: true,
		},
		{
			name:     "fallback fails - returns both errors",
			page:     &mockComponent{renderErr: errors.New("render failed")},
			fallback: &mockComponent{renderErr: errors.New("fallback failed")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eb := &errorBoundary{page: tt.page}
			if tt.fallback != nil {
				eb.fallback = tt.fallback
			}

			s := newScope(nil, "/", nil)
			n, err := eb.Render(s)

			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.page.renderErr)
				require.Nil(t, n)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantResult, n.Data)
			require.Equal(t, tt.wantStatus, s.Status())

			if tt.wantErrorsLen > 0 {
				fs := tt.fallback.capturedScope
				require.NotNil(t, fs)
				require.ErrorIs(t, ScopeError(fs), tt.page.renderErr)

				errs, ok := fs.Var("errors").([]error)
				require.True(t, ok, "errors should be a list of error")
				require.Len(t, errs, tt.wantErrorsLen)
			}
		})
	}
}

func TestScopeError(t *testing.T) {
	s := newScope(nil, "/", nil)
	require.NoError(t, ScopeError(s))

	boom := errors.New("boom")
	require.Equal(t, boom, ScopeError(s.Spawn(map[string]any{"error": boom})))
}
