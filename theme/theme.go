// Package theme loads view identities from theme.toml manifests. Each theme
// folder declares a slug, a label and optionally the slug of the theme it
// inherits from; the resulting Theme values implement viewstack.View so the
// resolver can fall back along the declared parent chain.
package theme

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/pelletier/go-toml"
	"github.com/weftcms/weft/viewstack"
)

// ManifestName is the filename a theme folder must carry to be discovered.
const ManifestName = "theme.toml"

type manifest struct {
	Slug     string `toml:"slug"`
	Label    string `toml:"label"`
	Inherits string `toml:"inherits"`
}

// Theme is a view identity loaded from a manifest.
type Theme struct {
	slug     string
	label    string
	inherits string
	parent   *Theme
}

func (t *Theme) Slug() string  { return t.slug }
func (t *Theme) Label() string { return t.label }

// Inheritance returns the theme's ancestors, nearest first. A repeated slug
// ends the chain, so manifests that declare a cycle still yield a finite
// chain for the resolver to walk.
func (t *Theme) Inheritance() []viewstack.View {
	var chain []viewstack.View
	seen := map[string]bool{t.slug: true}
	for parent := t.parent; parent != nil; parent = parent.parent {
		if seen[parent.slug] {
			break
		}
		seen[parent.slug] = true
		chain = append(chain, parent)
	}
	return chain
}

// Registry holds every theme discovered under a filesystem, keyed by slug.
type Registry struct {
	themes map[string]*Theme
}

// Load walks fsys for theme.toml manifests and links each theme to its
// parent by slug. A manifest without an explicit slug takes its folder's
// name. Duplicate slugs and dangling inherits references are errors.
func Load(fsys fs.FS) (*Registry, error) {
	rg := &Registry{themes: make(map[string]*Theme)}
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || entry.Name() != ManifestName {
			return nil
		}
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		var mf manifest
		err = toml.Unmarshal(b, &mf)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if mf.Slug == "" {
			dir := path.Dir(name)
			if dir == "." {
				return fmt.Errorf("%s: top-level manifest must declare a slug", name)
			}
			mf.Slug = path.Base(dir)
		}
		if _, ok := rg.themes[mf.Slug]; ok {
			return fmt.Errorf("%s: duplicate theme slug %q", name, mf.Slug)
		}
		if mf.Label == "" {
			mf.Label = mf.Slug
		}
		rg.themes[mf.Slug] = &Theme{slug: mf.Slug, label: mf.Label, inherits: mf.Inherits}
		return nil
	})
	if err != nil {
		return rg, err
	}
	for _, t := range rg.themes {
		if t.inherits == "" {
			continue
		}
		parent, ok := rg.themes[t.inherits]
		if !ok {
			return rg, fmt.Errorf("theme %q inherits unknown theme %q", t.slug, t.inherits)
		}
		t.parent = parent
	}
	return rg, nil
}

// Theme returns the theme registered under slug.
func (rg *Registry) Theme(slug string) (*Theme, bool) {
	t, ok := rg.themes[slug]
	return t, ok
}

// Slugs returns every registered slug in sorted order.
func (rg *Registry) Slugs() []string {
	slugs := make([]string, 0, len(rg.themes))
	for slug := range rg.themes {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
