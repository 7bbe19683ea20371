package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{
			name: "plain words",
			line: "list pods -r",
			want: []string{"list", "pods", "-r"},
		},
		{
			name: "collapses whitespace",
			line: "  use   alpha\t",
			want: []string{"use", "alpha"},
		},
		{
			name: "double quotes group words",
			line: `exec -- sh -c "echo hello world"`,
			want: []string{"exec", "--", "sh", "-c", "echo hello world"},
		},
		{
			name: "single quotes group words",
			line: `select '/web-[0-9]+/'`,
			want: []string{"select", "/web-[0-9]+/"},
		},
		{
			name: "escaped space",
			line: `describe web\ 0`,
			want: []string{"describe", "web 0"},
		},
		{
			name: "escaped quote inside double quotes",
			line: `exec -- echo "say \"hi\""`,
			want: []string{"exec", "--", "echo", `say "hi"`},
		},
		{
			name: "adjacent quoted and bare text",
			line: `echo pre"mid"post`,
			want: []string{"echo", "premidpost"},
		},
		{
			name: "empty quoted token survives",
			line: `exec -- printf ""`,
			want: []string{"exec", "--", "printf", ""},
		},
		{
			name:    "unterminated quote",
			line:    `select "web-`,
			wantErr: true,
		},
		{
			name:    "trailing backslash",
			line:    `describe web\`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.line)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnterminatedQuote)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
