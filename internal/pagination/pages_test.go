package pagination

import (
	"slices"
	"testing"
)

func TestPages(t *testing.T) {
	tests := []struct {
		name          string
		breaks        []float64
		contentHeight float64
		want          []Page
	}{
		{
			name:          "empty",
			breaks:        nil,
			contentHeight: 100,
			want:          nil,
		},
		{
			name:          "single page",
			breaks:        []float64{40},
			contentHeight: 300,
			want:          []Page{{Index: 0, Top: 0, Height: 300, First: true, Last: true}},
		},
		{
			name:          "bands relative to origin",
			breaks:        []float64{40, 490, 940},
			contentHeight: 1000,
			want: []Page{
				{Index: 0, Top: 0, Height: 450, First: true},
				{Index: 1, Top: 450, Height: 450},
				{Index: 2, Top: 900, Height: 100, Last: true},
			},
		},
		{
			name:          "break at the very end yields an empty last band",
			breaks:        []float64{0, 500},
			contentHeight: 500,
			want: []Page{
				{Index: 0, Top: 0, Height: 500, First: true},
				{Index: 1, Top: 500, Height: 0, Last: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pages(tt.breaks, tt.contentHeight); !slices.Equal(got, tt.want) {
				t.Errorf("Pages() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
