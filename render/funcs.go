package render

import "fmt"

// FuncMap returns the template funcs every rendered template gets. With no
// arguments the full map is returned; otherwise only the named funcs.
func FuncMap(names ...string) map[string]interface{} {
	funcMap := map[string]interface{}{
		"map":    fnMap,
		"slice":  fnSlice,
		"errorf": fnErrorf,
	}
	if len(names) == 0 {
		return funcMap
	}
	customMap := make(map[string]interface{})
	for _, name := range names {
		if fn, ok := funcMap[name]; ok {
			customMap[name] = fn
		}
	}
	return customMap
}

// fnMap builds a map from alternating key/value arguments. A trailing key
// with no value is dropped.
func fnMap(keyvalues ...interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	isKey := true
	var key string
	for i, arg := range keyvalues {
		if isKey && i+1 == len(keyvalues) {
			break
		}
		if isKey {
			key = fmt.Sprint(arg)
		} else {
			result[key] = arg
		}
		isKey = !isKey
	}
	return result
}

func fnSlice(a ...interface{}) []interface{} {
	return a
}

func fnErrorf(format string, a ...interface{}) (string, error) {
	return "", fmt.Errorf(format, a...)
}
