package render

// Vars is the value bag passed into a rendered template. The resolver and
// the renderer both write diagnostic values into it through SetDefault, so
// values the caller set explicitly always win.
type Vars struct {
	values map[string]interface{}
}

func NewVars() *Vars {
	return &Vars{values: make(map[string]interface{})}
}

func (vs *Vars) Set(key string, value interface{}) {
	vs.values[key] = value
}

// SetDefault sets key only if it has no value yet.
func (vs *Vars) SetDefault(key string, value interface{}) {
	if _, ok := vs.values[key]; !ok {
		vs.values[key] = value
	}
}

func (vs *Vars) Get(key string) (interface{}, bool) {
	value, ok := vs.values[key]
	return value, ok
}

// Snapshot returns a copy of the values for template execution, so the
// template cannot mutate the bag behind the caller's back.
func (vs *Vars) Snapshot() map[string]interface{} {
	snapshot := make(map[string]interface{}, len(vs.values))
	for key, value := range vs.values {
		snapshot[key] = value
	}
	return snapshot
}
