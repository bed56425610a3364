package selection

import (
	"regexp"
	"strings"

	"github.com/wonny/tvbatch/internal/surface"
)

var (
	stateAttrs       = []string{"aria-selected", "aria-checked", "data-active", "data-selected"}
	ancestorAttrs    = []string{"data-active", "data-selected", "aria-selected"}
	dataStatePattern = regexp.MustCompile(`(?i)active|selected|current`)
	classPattern     = regexp.MustCompile(`(?i)isActive|active|selected|current`)
	ancestorTokens   = map[string]bool{"isActive": true, "active": true, "selected": true, "current": true}
)

// IsSelected reports whether a row's observable state says it is the active item.
// Any one signal is enough.
func IsSelected(st surface.ElementState) bool {
	for _, name := range stateAttrs {
		if st.Attr(name) == "true" {
			return true
		}
	}
	if dataStatePattern.MatchString(st.Attr("data-state")) {
		return true
	}
	if classPattern.MatchString(st.Class) {
		return true
	}

	for _, anc := range st.Ancestors {
		for _, token := range strings.Fields(anc.Class) {
			if ancestorTokens[token] {
				return true
			}
		}
		for _, name := range ancestorAttrs {
			if anc.Attr(name) == "true" {
				return true
			}
		}
	}
	return false
}
