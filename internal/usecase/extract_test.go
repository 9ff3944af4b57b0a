package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFranchiseAndLocation(t *testing.T) {
	const id = "3f2b9c1e-8a4d-4e2f-9b6a-1c2d3e4f5a6b"

	tests := []struct {
		name         string
		body         string
		wantID       string
		wantLocation string
	}{
		{
			name:         "qr template",
			body:         "Hello, I have an issue at Franchise ID: " + id + ", Location: Indore Road, Indore, MP. Here is my problem:",
			wantID:       id,
			wantLocation: "Indore Road",
		},
		{
			name:         "location ends at period",
			body:         "franchise id - " + id + " Location: Indore. pain in knee",
			wantID:       id,
			wantLocation: "Indore",
		},
		{
			name:         "location ends at newline",
			body:         "Franchise ID " + id + "\nLocation:   Pune West\nhelp",
			wantID:       id,
			wantLocation: "Pune West",
		},
		{
			name:   "uppercase id is lowercased",
			body:   "FRANCHISE ID: 3F2B9C1E-8A4D-4E2F-9B6A-1C2D3E4F5A6B",
			wantID: id,
		},
		{
			name:   "labeled id wins over earlier bare uuid",
			body:   "ref 11111111-2222-3333-4444-555555555555 franchise id: " + id,
			wantID: id,
		},
		{
			name:   "bare uuid fallback",
			body:   "my clinic is " + id + " please call",
			wantID: id,
		},
		{
			name: "uuid embedded in a longer token is ignored",
			body: "ref x11111111-1111-1111-1111-1111111111119",
		},
		{
			name:         "no id",
			body:         "Hi, Location: Bhopal",
			wantLocation: "Bhopal",
		},
		{
			name: "empty",
			body: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotLocation := ExtractFranchiseAndLocation(tt.body)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.wantLocation, gotLocation)
		})
	}
}

func TestExtractAllUUIDs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "first-seen order",
			body: "b 11111111-2222-3333-4444-555555555555 a 3f2b9c1e-8a4d-4e2f-9b6a-1c2d3e4f5a6b",
			want: []string{"11111111-2222-3333-4444-555555555555", "3f2b9c1e-8a4d-4e2f-9b6a-1c2d3e4f5a6b"},
		},
		{
			name: "mixed case duplicates collapse",
			body: "3F2B9C1E-8A4D-4E2F-9B6A-1C2D3E4F5A6B then 3f2b9c1e-8a4d-4e2f-9b6a-1c2d3e4f5a6b",
			want: []string{"3f2b9c1e-8a4d-4e2f-9b6a-1c2d3e4f5a6b"},
		},
		{
			name: "embedded runs are skipped",
			body: "x11111111-1111-1111-1111-1111111111119 and (22222222-2222-2222-2222-222222222222)",
			want: []string{"22222222-2222-2222-2222-222222222222"},
		},
		{
			name: "none",
			body: "nothing here",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAllUUIDs(tt.body))
		})
	}
}
