// Package templates holds the templ components of the web UI. The
// *_templ.go files are generated from the .templ sources by `templ generate`.
package templates

import "github.com/a-h/templ"

//go:generate templ generate

// WorkspaceURL builds the path of a workspace action.
func WorkspaceURL(id, action string) templ.SafeURL {
	u := "/ws/" + id
	if action != "" {
		u += "/" + action
	}
	return templ.URL(u)
}
