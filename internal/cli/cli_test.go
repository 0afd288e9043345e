package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocrbridge/internal/app"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		want       *Options
		wantExit   bool
		wantCode   int
		wantOutput string
	}{
		{
			name: "long config flag",
			args: []string{"-config", "service.hcl"},
			want: &Options{App: &app.Config{SettingsPath: "service.hcl", Listen: ":8080", LogFormat: "json", LogLevel: "info"}},
		},
		{
			name: "shorthand and overrides",
			args: []string{"-c", "s.hcl", "-resources", "/etc/desc", "-listen", "127.0.0.1:9000", "-log-format", "TEXT", "-log-level", "debug"},
			want: &Options{App: &app.Config{
				SettingsPath:  "s.hcl",
				ResourcesPath: "/etc/desc",
				Listen:        "127.0.0.1:9000",
				LogFormat:     "text",
				LogLevel:      "debug",
			}},
		},
		{
			name: "positional settings path",
			args: []string{"-listen", "", "service.hcl"},
			want: &Options{App: &app.Config{SettingsPath: "service.hcl", LogFormat: "json", LogLevel: "info"}},
		},
		{
			name: "config flag wins over positional",
			args: []string{"-config", "a.hcl", "b.hcl"},
			want: &Options{App: &app.Config{SettingsPath: "a.hcl", Listen: ":8080", LogFormat: "json", LogLevel: "info"}},
		},
		{
			name: "parse report needs no settings",
			args: []string{"-parse-report", "-"},
			want: &Options{ReportPath: "-"},
		},
		{
			name:       "no settings path prints usage",
			args:       nil,
			wantExit:   true,
			wantOutput: "Usage:",
		},
		{
			name:       "help",
			args:       []string{"-h"},
			wantExit:   true,
			wantOutput: "-parse-report",
		},
		{
			name:     "invalid log format",
			args:     []string{"-log-format", "xml", "s.hcl"},
			wantCode: 2,
		},
		{
			name:     "invalid log level",
			args:     []string{"-log-level", "trace", "s.hcl"},
			wantCode: 2,
		},
		{
			name:     "unknown flag",
			args:     []string{"-workers", "3"},
			wantCode: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, exit, err := Parse(tc.args, &out)

			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantOutput != "" {
				assert.Contains(t, out.String(), tc.wantOutput)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
