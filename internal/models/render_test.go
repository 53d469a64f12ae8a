package models_test

import (
	"strings"
	"testing"

	"github.com/floatchat/floatchat/internal/models"
)

func TestRenderContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain text",
			content: "Hello there",
			want:    []string{"<p>Hello there</p>"},
		},
		{
			name:    "code fence",
			content: "```go\nfmt.Println(\"hi\")\n```",
			want:    []string{"<pre"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.RenderContent(tt.content)
			if err != nil {
				t.Fatalf("RenderContent() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(got), want) {
					t.Errorf("RenderContent() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestRenderContentDropsRawHTML(t *testing.T) {
	got, err := models.RenderContent("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderContent() error = %v", err)
	}
	if strings.Contains(string(got), "<script>") {
		t.Errorf("RenderContent() passed raw HTML through: %q", got)
	}
}
