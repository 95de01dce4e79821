package etsimport

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// maxBaseValueDepth bounds chained NumericArg BaseValue references.
const maxBaseValueDepth = 8

// moduleContext carries the argument values of the module instance an
// object belongs to.
type moduleContext struct {
	values     map[string]string // this module instance's Argument RefId → Value
	baseValues map[string]string // the enclosing super-module's values, if any
}

// arguments returns the instance's own values plus every super-module value
// it does not define itself.
func (m moduleContext) arguments() map[string]string {
	if len(m.baseValues) == 0 {
		return m.values
	}
	merged := make(map[string]string, len(m.values)+len(m.baseValues))
	maps.Copy(merged, m.baseValues)
	maps.Copy(merged, m.values)
	return merged
}

// objectNumber returns the communication object number shown in ETS.
//
// Objects inside modules declare a BaseNumber argument. The module's value
// for it is either a literal offset or refers to a NumericArg/Allocator pair
// whose block size is multiplied by the module instance index. The offset
// is added to the static number. Whenever the chain cannot be resolved the
// static number is kept.
func objectNumber(static *uint32, obj *comObjectDef, module moduleContext, app *appProgram, instanceRef string) *uint32 {
	if static == nil {
		return nil
	}
	if obj == nil || obj.baseNumberRef == "" || module.values == nil || app == nil {
		return static
	}
	offset, ok := resolveBaseNumber(obj.baseNumberRef, module, app, instanceRef, 0)
	if !ok {
		return static
	}
	n := saturatingAdd(*static, offset)
	return &n
}

func resolveBaseNumber(baseRef string, module moduleContext, app *appProgram, instanceRef string, depth int) (uint32, bool) {
	if depth > maxBaseValueDepth {
		return 0, false
	}
	raw := strings.TrimSpace(lookupModuleValue(baseRef, app.prefix, module))
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
		return uint32(n), true
	}

	numeric, hasNumeric := lookupBySuffix(app.numericArgs, baseRef)
	if hasNumeric && numeric.value != nil {
		return *numeric.value, true
	}

	allocatorRef := raw
	if hasNumeric && numeric.allocatorRefID != "" {
		allocatorRef = numeric.allocatorRefID
	}
	start, ok := allocatorStart(app, allocatorRef)
	if !ok {
		return 0, false
	}
	arg, ok := lookupBySuffix(app.moduleArguments, baseRef)
	if !ok || arg.allocates == nil {
		return 0, false
	}

	index := moduleIndex(instanceRef)
	value := saturatingAdd(start, saturatingMul(*arg.allocates, index-1))

	if hasNumeric && numeric.baseValue != "" {
		if extra, ok := resolveBaseNumber(numeric.baseValue, module, app, instanceRef, depth+1); ok {
			value = saturatingAdd(value, extra)
		}
	}
	return value, true
}

// lookupModuleValue finds an argument value by exact key, then by key
// suffix, first in the module instance and then in its super-module.
// Project files may use app-relative argument ids, so the key is also
// tried with the application prefix removed.
func lookupModuleValue(key, prefix string, module moduleContext) string {
	keys := []string{key}
	if short := stripPrefix(key, prefix); short != key && short != "" {
		keys = append(keys, short)
	}
	for _, values := range []map[string]string{module.values, module.baseValues} {
		for _, k := range keys {
			if v, ok := lookupBySuffix(values, k); ok {
				return v
			}
		}
	}
	return ""
}

// lookupBySuffix returns m[key], or the value of the first key (in sorted
// order) ending with key.
func lookupBySuffix[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if strings.HasSuffix(k, key) {
			return m[k], true
		}
	}
	var zero V
	return zero, false
}

func allocatorStart(app *appProgram, ref string) (uint32, bool) {
	if a, ok := app.allocators[ref]; ok {
		return a.start, true
	}
	if a, ok := app.allocators[app.prefix+ref]; ok {
		return a.start, true
	}
	if a, ok := lookupBySuffix(app.allocators, ref); ok {
		return a.start, true
	}
	return 0, false
}

// moduleIndex parses the instance index from a "_MI-<n>" token, default 1.
func moduleIndex(ref string) uint32 {
	const marker = "_MI-"
	i := strings.Index(ref, marker)
	if i < 0 {
		return 1
	}
	rest := ref[i+len(marker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	n, err := strconv.ParseUint(rest[:end], 10, 32)
	if err != nil || n == 0 {
		return 1
	}
	return uint32(n)
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func saturatingMul(a, b uint32) uint32 {
	if a != 0 && b > math.MaxUint32/a {
		return math.MaxUint32
	}
	return a * b
}
