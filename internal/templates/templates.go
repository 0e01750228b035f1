// Package templates selects templates and versions for apply runs.
package templates

import (
	"strings"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
)

// FindVersion returns the version of t named name, or nil.
func FindVersion(t types.Template, name string) *types.TemplateVersion {
	for i := range t.Versions {
		if t.Versions[i].Name == name {
			return &t.Versions[i]
		}
	}
	return nil
}

// ContentVersion returns t's canonical content version, or nil.
func ContentVersion(t types.Template) *types.TemplateVersion {
	return FindVersion(t, types.ContentVersionName)
}

// HasContentVersion reports whether t can be used as a module source.
func HasContentVersion(t types.Template) bool {
	return ContentVersion(t) != nil
}

// FilterContentTemplates keeps the templates that have a content version,
// preserving their order.
func FilterContentTemplates(all []types.Template) []types.Template {
	out := make([]types.Template, 0, len(all))
	for _, t := range all {
		if HasContentVersion(t) {
			out = append(out, t)
		}
	}
	return out
}

// ResolveVersion finds the version tagged tag. A nil result means a new
// version has to be created.
func ResolveVersion(t types.Template, tag string) *types.TemplateVersion {
	return FindVersion(t, tag)
}

// MergeActive returns the active state an updated version should carry.
// Requesting activation can only turn a version on, never off.
func MergeActive(current, activate bool) bool {
	return current || activate
}

// Match reports whether ref names t by id or by name.
func Match(t types.Template, ref string) bool {
	return t.ID == ref || t.Name == ref
}

// ResolveRefs picks the templates a run applies to. Without refs every content
// template is used; otherwise every ref must resolve to a content template.
func ResolveRefs(all []types.Template, refs []string) ([]types.Template, error) {
	if len(refs) == 0 {
		selected := FilterContentTemplates(all)
		if len(selected) == 0 {
			return nil, apperr.New(apperr.CodeNoTemplates, "no applicable templates")
		}
		return selected, nil
	}

	var (
		selected []types.Template
		notFound []string
		untagged []string
		seen     = make(map[string]bool)
	)
	for _, ref := range refs {
		found := false
		for _, t := range all {
			if !Match(t, ref) {
				continue
			}
			found = true
			if !HasContentVersion(t) {
				untagged = append(untagged, quote(ref))
			} else if !seen[t.ID] {
				seen[t.ID] = true
				selected = append(selected, t)
			}
			break
		}
		if !found {
			notFound = append(notFound, quote(ref))
		}
	}

	if len(notFound) > 0 {
		return nil, apperr.New(apperr.CodeTemplateNotFound, "unknown template(s): %s", strings.Join(notFound, ", "))
	}
	if len(untagged) > 0 {
		return nil, apperr.New(apperr.CodeTemplateNoContent, "missing content versions: %s", strings.Join(untagged, ", "))
	}
	if len(selected) == 0 {
		return nil, apperr.New(apperr.CodeNoTemplates, "no applicable templates")
	}
	return selected, nil
}

func quote(s string) string {
	return "'" + s + "'"
}
