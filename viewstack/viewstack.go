// Package viewstack maps logical template names to physical template files
// with inheritance-aware fallback. A view asks for a template by name; if no
// file exists for the view's own slug the resolver retries the lookup with
// each ancestor view's slug, and for bare single-name lookups it finally
// falls back to the generic "base" template. Results, misses included, are
// memoized for the lifetime of a Resolver.
package viewstack

import (
	"errors"
	"strings"
)

// ErrTemplateNotFound is returned by Resolve, NotFoundTemplate and
// BaseTemplate when no physical template exists for a lookup. A miss is
// always a value to check, never a panic.
var ErrTemplateNotFound = errors.New("viewstack: template not found")

// View identifies a view variant: a slug used in template lookups, a
// human-readable label, and the ordered chain of ancestor views it falls
// back to. Inheritance is ordered nearest ancestor first, never includes
// the view itself, and may be empty.
type View interface {
	Slug() string
	Label() string
	Inheritance() []View
}

// Locator turns an ordered fragment sequence into a physical template path.
// It is total: a miss is reported through ok, never through an error.
type Locator interface {
	Locate(fragments ...string) (path string, ok bool)
}

// FolderLister is implemented by locators that can report their configured
// lookup folders in priority order.
type FolderLister interface {
	Folders() []string
}

// Vars is the render-context value bag the resolver writes diagnostic
// values into. SetDefault must not overwrite a value the caller already
// supplied.
type Vars interface {
	Set(key string, value interface{})
	SetDefault(key string, value interface{})
	Get(key string) (interface{}, bool)
}

// Keys written into Vars by BaseTemplate for the not-found diagnostic page.
const (
	VarLookupFolders = "lookup_folders"
	VarViewSlug      = "view_slug"
	VarViewLabel     = "view_label"
)

const baseSlug = "base"

// Resolver resolves logical template names for one render pass. Create one
// per pass: the cache is append-only, never evicted, and dies with the
// instance. A Resolver is not safe for concurrent use; concurrent render
// passes each get their own.
type Resolver struct {
	locator Locator
	view    View
	vars    Vars
	rootdir string
	cache   map[string]string // joined fragments -> path, "" records a miss
}

type Option func(*Resolver) error

// WithView binds the view the resolver resolves templates for.
func WithView(view View) Option {
	return func(rs *Resolver) error {
		rs.view = view
		return nil
	}
}

// WithVars supplies the render-context value bag that BaseTemplate writes
// its diagnostic values into.
func WithVars(vars Vars) Option {
	return func(rs *Resolver) error {
		rs.vars = vars
		return nil
	}
}

// WithRootDir sets the host-root prefix stripped from lookup-folder paths
// before they are exposed for diagnostics.
func WithRootDir(dir string) Option {
	return func(rs *Resolver) error {
		rs.rootdir = dir
		return nil
	}
}

func NewResolver(locator Locator, opts ...Option) (*Resolver, error) {
	rs := &Resolver{
		locator: locator,
		cache:   make(map[string]string),
	}
	var err error
	for _, opt := range opts {
		err = opt(rs)
		if err != nil {
			return rs, err
		}
	}
	return rs, nil
}

// SetView rebinds the resolver to a different view. The cache is not
// cleared: entries resolved under the previous view keep their results,
// including inheritance-fallback paths found through the old view's
// ancestors.
func (rs *Resolver) SetView(view View) {
	rs.view = view
}

// View returns the currently bound view.
func (rs *Resolver) View() View {
	return rs.view
}

// Resolve returns the physical template path for the given name. With no
// name the bound view's slug is used; a single name is split into fragments
// on "/"; multiple names are used as fragments as-is.
//
// Lookup order: the fragments as given, then — when the first fragment is
// the bound view's own slug — the same fragments with each ancestor's slug
// substituted, nearest ancestor first, and finally the "base" template for
// single-fragment lookups. The result (or the miss) is cached under the
// joined fragments for the lifetime of the resolver.
func (rs *Resolver) Resolve(names ...string) (string, error) {
	fragments := rs.fragments(names)
	key := strings.Join(fragments, "/")
	if path, ok := rs.cache[key]; ok {
		if path == "" {
			return "", ErrTemplateNotFound
		}
		return path, nil
	}
	path, found := rs.locator.Locate(fragments...)
	if !found && rs.view != nil && len(fragments) > 0 && fragments[0] == rs.view.Slug() {
		// The chain is walked exactly once in the order given, so a cyclic
		// ancestor graph still terminates.
		for _, ancestor := range rs.view.Inheritance() {
			candidate := make([]string, len(fragments))
			copy(candidate, fragments)
			candidate[0] = ancestor.Slug()
			path, found = rs.locator.Locate(candidate...)
			if found {
				break
			}
		}
	}
	if !found && len(fragments) == 1 {
		path, found = rs.locator.Locate(baseSlug)
	}
	if !found {
		rs.cache[key] = ""
		return "", ErrTemplateNotFound
	}
	rs.cache[key] = path
	return path, nil
}

// NotFoundTemplate locates the "not-found" template. The inheritance and
// base fallbacks are skipped entirely; only the primary lookup is
// performed, and the result is never memoized so every call stays a direct
// lookup.
func (rs *Resolver) NotFoundTemplate() (string, error) {
	path, ok := rs.locator.Locate("not-found")
	if !ok {
		return "", ErrTemplateNotFound
	}
	return path, nil
}

// BaseTemplate locates the generic "base" template directly, bypassing the
// resolver cache. As a side effect it exposes the locator's configured
// lookup folders (with the root-dir prefix stripped) and the bound view's
// slug and label to the render context, for display on the not-found
// diagnostic page. Values the caller already set are left alone.
func (rs *Resolver) BaseTemplate() (string, error) {
	if rs.vars != nil {
		if lister, ok := rs.locator.(FolderLister); ok {
			folders := lister.Folders()
			stripped := make([]string, len(folders))
			for i, folder := range folders {
				stripped[i] = strings.TrimPrefix(folder, rs.rootdir)
			}
			rs.vars.SetDefault(VarLookupFolders, stripped)
		}
		if rs.view != nil {
			rs.vars.SetDefault(VarViewSlug, rs.view.Slug())
			rs.vars.SetDefault(VarViewLabel, rs.view.Label())
		}
	}
	path, ok := rs.locator.Locate(baseSlug)
	if !ok {
		return "", ErrTemplateNotFound
	}
	return path, nil
}

func (rs *Resolver) fragments(names []string) []string {
	if len(names) == 0 {
		if rs.view == nil {
			return nil
		}
		return []string{rs.view.Slug()}
	}
	if len(names) == 1 {
		return strings.Split(names[0], "/")
	}
	return names
}
