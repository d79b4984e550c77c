// Package render turns resolved template paths into HTML output. A
// Renderer reads template files from the same filesystem the locator
// searched, parses them with html/template, memoizes the parsed templates,
// and executes them through a pooled buffer. When resolution misses it
// falls back to the theme's "not-found" template and finally to a built-in
// diagnostic page.
package render

import (
	"html/template"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oxtoacart/bpool"
	"github.com/weftcms/weft/erro"
	"github.com/weftcms/weft/viewstack"
)

// VarRequested is the Vars key the diagnostic page reads the requested
// template name from.
const VarRequested = "requested"

// Renderer parses and executes resolved template files. Unlike a
// viewstack.Resolver, a Renderer is shared across render passes: the parse
// cache is guarded by a lock and lives as long as the Renderer does.
type Renderer struct {
	mu         *sync.RWMutex
	fsys       fs.FS
	bufpool    *bpool.BufferPool
	funcs      map[string]interface{}
	opts       []string
	htmlPolicy *bluemonday.Policy
	// parse cache
	cacheenabled bool
	cachehtml    map[string]*template.Template
}

type Option func(*Renderer) error

// TemplateFuncs merges the given func maps into the renderer's base funcs.
func TemplateFuncs(funcmaps ...map[string]interface{}) Option {
	return func(rd *Renderer) error {
		for _, funcmap := range funcmaps {
			for name, fn := range funcmap {
				rd.funcs[name] = fn
			}
		}
		return nil
	}
}

// TemplateOpts sets html/template options applied to every parsed template.
func TemplateOpts(option ...string) Option {
	return func(rd *Renderer) error {
		rd.opts = option
		return nil
	}
}

// EnableCache turns on memoization of parsed templates. Leave it off while
// developing so template edits show up without a restart.
func EnableCache() Option {
	return func(rd *Renderer) error {
		rd.cacheenabled = true
		return nil
	}
}

func New(fsys fs.FS, opts ...Option) (*Renderer, error) {
	rd := &Renderer{
		mu:         &sync.RWMutex{},
		fsys:       fsys,
		bufpool:    bpool.NewBufferPool(64),
		funcs:      FuncMap(),
		htmlPolicy: bluemonday.UGCPolicy(),
		cachehtml:  make(map[string]*template.Template),
	}
	rd.funcs["sanitize"] = rd.sanitize
	var err error
	for _, opt := range opts {
		err = opt(rd)
		if err != nil {
			return rd, err
		}
	}
	return rd, nil
}

// sanitize strips untrusted markup down to the UGC policy and marks the
// remainder safe for inclusion. Exposed to templates as "sanitize".
func (rd *Renderer) sanitize(s string) template.HTML {
	return template.HTML(rd.htmlPolicy.Sanitize(s))
}

// Page resolves name through rs and writes the rendered template to w. On
// ErrTemplateNotFound it renders the not-found diagnostic instead; any
// other failure is returned.
func (rd *Renderer) Page(w io.Writer, rs *viewstack.Resolver, vars *Vars, names ...string) error {
	path, err := rs.Resolve(names...)
	if erro.Is(err, viewstack.ErrTemplateNotFound) {
		return rd.notFound(w, rs, vars, names)
	}
	if err != nil {
		return erro.Wrap(err)
	}
	t, err := rd.lookup(path)
	if err != nil {
		return erro.Wrap(err)
	}
	return rd.execute(w, t, vars.Snapshot())
}

// lookup returns the parsed template for a physical path, from the cache
// when enabled.
func (rd *Renderer) lookup(name string) (*template.Template, error) {
	if rd.cacheenabled {
		rd.mu.RLock()
		t := rd.cachehtml[name]
		rd.mu.RUnlock()
		if t != nil {
			return t, nil
		}
	}
	b, err := fs.ReadFile(rd.fsys, name)
	if err != nil {
		return nil, err
	}
	t, err := template.New(name).Funcs(rd.funcs).Option(rd.opts...).Parse(string(b))
	if err != nil {
		return nil, err
	}
	if rd.cacheenabled {
		rd.mu.Lock()
		rd.cachehtml[name] = t
		rd.mu.Unlock()
	}
	return t, nil
}

func (rd *Renderer) execute(w io.Writer, t *template.Template, data map[string]interface{}) error {
	tempbuf := rd.bufpool.Get()
	defer rd.bufpool.Put(tempbuf)
	err := t.Execute(tempbuf, data)
	if err != nil {
		return err
	}
	_, err = tempbuf.WriteTo(w)
	if err != nil {
		return err
	}
	return nil
}

// notFound renders the miss. BaseTemplate is asked first for its side
// effect: it exposes the lookup folders and the view identity to vars for
// the diagnostic page. Then the theme's own "not-found" template gets a
// chance before the built-in fallback.
func (rd *Renderer) notFound(w io.Writer, rs *viewstack.Resolver, vars *Vars, names []string) error {
	_, _ = rs.BaseTemplate()
	vars.SetDefault(VarRequested, strings.Join(names, "/"))
	if path, err := rs.NotFoundTemplate(); err == nil {
		t, err := rd.lookup(path)
		if err != nil {
			return erro.Wrap(err)
		}
		return rd.execute(w, t, vars.Snapshot())
	}
	return rd.execute(w, diagnosticTmpl, vars.Snapshot())
}

// diagnosticPage is rendered when neither the requested template nor the
// theme's "not-found" template exists on disk.
const diagnosticPage = `<!doctype html>
<title>Template not found</title>
<h1>Template not found</h1>
<p>No template matched <code>{{index . "requested"}}</code>{{with index . "view_label"}} for view {{.}}{{end}}.</p>
{{with index . "lookup_folders"}}<p>Folders searched:</p>
<ul>{{range .}}<li><code>{{.}}</code></li>{{end}}</ul>{{end}}
`

var diagnosticTmpl = template.Must(template.New("not-found").Parse(diagnosticPage))
