package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/tvbatch/internal/surface"
)

func TestIsSelected(t *testing.T) {
	tests := []struct {
		name  string
		state surface.ElementState
		want  bool
	}{
		{"plain row", surface.ElementState{Class: "symbol-RsFlttSS"}, false},
		{"aria-selected", surface.ElementState{Attrs: map[string]string{"aria-selected": "true"}}, true},
		{"aria-selected false", surface.ElementState{Attrs: map[string]string{"aria-selected": "false"}}, false},
		{"data-active", surface.ElementState{Attrs: map[string]string{"data-active": "true"}}, true},
		{"data-state current", surface.ElementState{Attrs: map[string]string{"data-state": "Current"}}, true},
		{"active class", surface.ElementState{Class: "symbol-RsFlttSS active-RsFlttSS"}, true},
		{"isActive class", surface.ElementState{Class: "row isActive"}, true},
		{
			"selected ancestor",
			surface.ElementState{Class: "symbol", Ancestors: []surface.ElementState{{Class: "wrap"}, {Class: "wrap selected"}}},
			true,
		},
		{
			"ancestor attribute",
			surface.ElementState{Ancestors: []surface.ElementState{{Attrs: map[string]string{"data-selected": "true"}}}},
			true,
		},
		{
			"ancestor hashed class is not a token",
			surface.ElementState{Ancestors: []surface.ElementState{{Class: "wrap-selectedish"}}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSelected(tt.state))
		})
	}
}
