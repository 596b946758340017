package library

import (
	"slices"
)

// Report is a diagnostic snapshot of a scope and its descendants.
type Report struct {
	ID   string `json:"id"`
	Root bool   `json:"root,omitempty"`
	// Modules lists every defined module; only set on the root report.
	Modules []string `json:"modules,omitempty"`
	// Singletons labels the cached instances that differ from the parent
	// scope as "name@instance", with " [reset]" for names this scope reset.
	Singletons []string `json:"singletons"`
	Children   []Report `json:"children,omitempty"`
}

// Dump reports this scope as the root of a tree.
func (l *Library) Dump() Report {
	return l.dump(true)
}

func (l *Library) dump(isRoot bool) Report {
	mine := l.cache.visible()

	var inherited map[string]*entry
	if l.parent != nil {
		inherited = l.parent.cache.visible()
	}

	names := make([]string, 0, len(mine))
	for name, e := range mine {
		if inherited[name] == e {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	labels := make([]string, 0, len(names))
	for _, name := range names {
		label := name + "@" + mine[name].id
		if slices.Contains(l.resets, name) {
			label += " [reset]"
		}
		labels = append(labels, label)
	}

	r := Report{ID: l.id, Singletons: labels}
	if isRoot {
		r.Root = true
		r.Modules = l.Modules()
	}
	for _, child := range l.Children() {
		r.Children = append(r.Children, child.dump(false))
	}
	return r
}
