package inspect

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/km-arc/go-library/framework/library"
)

var (
	scopeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	singletonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	resetStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Render draws a dump report as a tree: each scope with its own
// singletons, then its child scopes.
//
//	library@1a2b (root)
//	├── bird@77c0
//	└── library@9f31
//	    └── bird@e4d2 [reset]
func Render(r library.Report) string {
	return build(r).String() + "\n"
}

func build(r library.Report) *tree.Tree {
	label := scopeStyle.Render(r.ID)
	if r.Root {
		label += mutedStyle.Render(" (root)")
	}

	t := tree.Root(label).EnumeratorStyle(mutedStyle)
	for _, s := range r.Singletons {
		if strings.HasSuffix(s, " [reset]") {
			t.Child(resetStyle.Render(s))
			continue
		}
		t.Child(singletonStyle.Render(s))
	}
	for _, c := range r.Children {
		t.Child(build(c))
	}
	return t
}
