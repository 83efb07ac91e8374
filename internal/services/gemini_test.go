package services

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestGeminiText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil response", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name: "text parts joined",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("Rain "), genai.Text("falls.")}}},
			}},
			want: "Rain falls.",
		},
		{
			name: "non-text parts only",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := geminiText(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("geminiText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("geminiText() = %q, want %q", got, tt.want)
			}
		})
	}
}
