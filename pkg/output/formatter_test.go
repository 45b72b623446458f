package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPrintSourceReport(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name   string
		report SourceReport
		want   []string
	}{
		{
			name: "with overrides",
			report: SourceReport{
				Order: "host-first",
				Sources: []SourceLine{
					{Name: "wwwroot", Kind: "directory", Root: "/srv/wwwroot"},
					{Name: "extra", Kind: "directory", Root: "/srv/extra", Missing: true},
					{Name: "library", Kind: "embedded", Files: 4},
				},
				Overrides: []Override{{Path: "css/site.css", By: "wwwroot"}},
			},
			want: []string{
				"Order: host-first",
				"1. wwwroot (directory)",
				"   /srv/extra (missing)",
				"3. library (embedded)",
				"   4 files",
				"OVERRIDDEN LIBRARY ASSETS: 1",
				"  css/site.css <- wwwroot",
			},
		},
		{
			name: "no overrides",
			report: SourceReport{
				Order:   "embedded-first",
				Sources: []SourceLine{{Name: "library", Kind: "embedded", Files: 4}},
			},
			want: []string{"No library assets are overridden."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintSourceReport(&buf, tt.report)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}
