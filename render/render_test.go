package render

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/matryer/is"
	"github.com/weftcms/weft/locate"
	"github.com/weftcms/weft/theme"
	"github.com/weftcms/weft/viewstack"
)

func siteFS() fstest.MapFS {
	return fstest.MapFS{
		"plainsimple/theme.toml": &fstest.MapFile{Data: []byte(
			"slug = \"plainsimple\"\nlabel = \"Plain & Simple\"\n",
		)},
		"seaside/theme.toml": &fstest.MapFile{Data: []byte(
			"slug = \"seaside\"\nlabel = \"Seaside\"\ninherits = \"plainsimple\"\n",
		)},
		"plainsimple/post.html": &fstest.MapFile{Data: []byte(
			`<article>{{index . "site_title"}}: inherited post</article>`,
		)},
		"seaside/home.html": &fstest.MapFile{Data: []byte(
			`<main>{{sanitize (index . "bio")}}</main>`,
		)},
	}
}

// newSite wires a renderer and a resolver sharing one vars bag, the way a
// request handler would.
func newSite(t *testing.T, fsys fstest.MapFS, opts ...Option) (*Renderer, *viewstack.Resolver, *Vars) {
	t.Helper()
	is := is.New(t)
	rd, err := New(fsys, opts...)
	is.NoErr(err)
	rg, err := theme.Load(fsys)
	is.NoErr(err)
	seaside, ok := rg.Theme("seaside")
	is.True(ok)
	fl, err := locate.New(fsys)
	is.NoErr(err)
	vars := NewVars()
	rs, err := viewstack.NewResolver(fl, viewstack.WithView(seaside), viewstack.WithVars(vars))
	is.NoErr(err)
	return rd, rs, vars
}

func Test_Page_RendersInheritedTemplate(t *testing.T) {
	is := is.New(t)
	rd, rs, vars := newSite(t, siteFS())

	vars.Set("site_title", "Weft")
	out := &strings.Builder{}
	// seaside has no post.html of its own; plainsimple's is used.
	err := rd.Page(out, rs, vars, "seaside", "post")
	is.NoErr(err)
	is.Equal(out.String(), "<article>Weft: inherited post</article>")
}

func Test_Page_SanitizeFunc(t *testing.T) {
	is := is.New(t)
	rd, rs, vars := newSite(t, siteFS())

	vars.Set("bio", `hello <script>alert(1)</script><b>world</b>`)
	out := &strings.Builder{}
	err := rd.Page(out, rs, vars, "seaside", "home")
	is.NoErr(err)
	is.True(!strings.Contains(out.String(), "<script>"))
	is.True(strings.Contains(out.String(), "<b>world</b>"))
}

func Test_Page_MissRendersThemeNotFound(t *testing.T) {
	is := is.New(t)
	fsys := siteFS()
	fsys["not-found.html"] = &fstest.MapFile{Data: []byte(
		`missing: {{index . "requested"}}`,
	)}
	rd, rs, vars := newSite(t, fsys)

	out := &strings.Builder{}
	err := rd.Page(out, rs, vars, "seaside", "gone")
	is.NoErr(err)
	is.Equal(out.String(), "missing: seaside/gone")
}

func Test_Page_MissRendersBuiltinDiagnostic(t *testing.T) {
	is := is.New(t)
	rd, rs, vars := newSite(t, siteFS())

	out := &strings.Builder{}
	err := rd.Page(out, rs, vars, "seaside", "gone")
	is.NoErr(err)
	is.True(strings.Contains(out.String(), "Template not found"))
	is.True(strings.Contains(out.String(), "seaside/gone"))
	is.True(strings.Contains(out.String(), "Seaside")) // view label from BaseTemplate diagnostics
}

func Test_Lookup_CacheServesStaleAfterEdit(t *testing.T) {
	is := is.New(t)
	fsys := siteFS()
	rd, rs, vars := newSite(t, fsys, EnableCache())

	vars.Set("bio", "one")
	out := &strings.Builder{}
	err := rd.Page(out, rs, vars, "seaside", "home")
	is.NoErr(err)
	is.Equal(out.String(), "<main>one</main>")

	fsys["seaside/home.html"] = &fstest.MapFile{Data: []byte("edited")}
	out.Reset()
	err = rd.Page(out, rs, vars, "seaside", "home")
	is.NoErr(err)
	is.Equal(out.String(), "<main>one</main>") // parse cache keeps the old tree
}

func Test_Vars_SetDefaultDoesNotOverwrite(t *testing.T) {
	is := is.New(t)
	vars := NewVars()
	vars.Set("k", "caller")
	vars.SetDefault("k", "default")
	value, ok := vars.Get("k")
	is.True(ok)
	is.Equal(value, "caller")

	vars.SetDefault("fresh", "default")
	value, ok = vars.Get("fresh")
	is.True(ok)
	is.Equal(value, "default")
}

func Test_Vars_SnapshotIsACopy(t *testing.T) {
	is := is.New(t)
	vars := NewVars()
	vars.Set("k", "v")
	snapshot := vars.Snapshot()
	snapshot["k"] = "mutated"
	value, _ := vars.Get("k")
	is.Equal(value, "v")
}

func Test_FuncMap_Subset(t *testing.T) {
	is := is.New(t)
	funcs := FuncMap("slice")
	_, ok := funcs["slice"]
	is.True(ok)
	_, ok = funcs["map"]
	is.True(!ok)
}
