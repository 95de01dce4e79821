package etsimport

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

// comObjectData is the effective data of one communication object after
// reference/template precedence has been applied.
type comObjectData struct {
	flags         flagSet
	datapointType string
	channel       string
	number        *uint32
	description   string
	objectSize    string
}

// comObjectKey maps a ComObjectInstanceRef RefId to its ComObjectRef key.
// Module instances carry the module path in front of the object part:
//
//	MD-1_M-1_MI-2_O-3-0_R-5 → MD-1_O-3-0_R-5
func comObjectKey(instanceRef string) string {
	idx := strings.Index(instanceRef, "_O-")
	if idx < 0 {
		return instanceRef
	}
	module, _, _ := strings.Cut(instanceRef, "_")
	if module == "" {
		return instanceRef
	}
	return module + "_" + instanceRef[idx+1:]
}

// lookupComObject resolves the reference and template for an instance ref.
func lookupComObject(app *appProgram, instanceRef string) (*comObjectRefDef, *comObjectDef) {
	if app == nil {
		return nil, nil
	}
	ref, ok := app.comObjectRefs[comObjectKey(instanceRef)]
	if !ok {
		return nil, nil
	}
	if ref.refID == "" {
		return &ref, nil
	}
	obj, ok := app.comObjects[ref.refID]
	if !ok {
		return &ref, nil
	}
	return &ref, &obj
}

// resolveComData applies precedence: the reference value first, else the
// template's. Flags fall back bit by bit. The template number wins over the
// reference number.
func resolveComData(ref *comObjectRefDef, obj *comObjectDef) comObjectData {
	var d comObjectData
	if ref != nil {
		d.flags = ref.flags
		d.datapointType = ref.datapointType
		d.objectSize = ref.objectSize
		d.channel = ref.channel
		d.description = ref.description
	}
	if obj != nil {
		d.number = obj.number
	}
	if d.number == nil && ref != nil {
		d.number = ref.number
	}
	if obj != nil {
		d.flags = d.flags.withFallback(obj.flags)
		if d.datapointType == "" {
			d.datapointType = obj.datapointType
		}
		if d.objectSize == "" {
			d.objectSize = obj.objectSize
		}
		if d.description == "" {
			d.description = obj.description
		}
	}
	return d
}

// resolveModuleArguments renames module argument refs to their declared
// names so they can be substituted into {{name}} templates.
func resolveModuleArguments(moduleArgs map[string]string, app *appProgram) map[string]string {
	out := make(map[string]string, len(moduleArgs))
	for refID, value := range moduleArgs {
		name := refID
		if app != nil {
			if n, ok := app.arguments[stripPrefix(refID, app.prefix)]; ok {
				name = n
			}
		}
		out[name] = value
	}
	return out
}

// resolveObjectName picks the first non-blank of the reference's and then
// the template's FunctionText, Text and Name, with arguments substituted.
func resolveObjectName(ref *comObjectRefDef, obj *comObjectDef, args map[string]string) string {
	var candidates []string
	if ref != nil {
		candidates = append(candidates, ref.functionText, ref.text, ref.name)
	}
	if obj != nil {
		candidates = append(candidates, obj.functionText, obj.text, obj.name)
	}
	return resolveTemplate(firstNonEmpty(candidates...), args)
}

// refOrObj returns the reference's field if set, else the template's.
func refOrObj(ref *comObjectRefDef, obj *comObjectDef, field func(*comObjectRefDef) string, objField func(*comObjectDef) string) string {
	if ref != nil {
		if v := field(ref); v != "" {
			return v
		}
	}
	if obj != nil {
		return objField(obj)
	}
	return ""
}

// resolveTemplate substitutes {{name}} placeholders. Blank input yields "".
func resolveTemplate(value string, args map[string]string) string {
	resolved := strings.TrimSpace(value)
	if resolved == "" {
		return ""
	}
	for _, key := range slices.Sorted(maps.Keys(args)) {
		resolved = strings.ReplaceAll(resolved, "{{"+key+"}}", args[key])
	}
	return resolved
}

// linkIDs returns the group address references of a ComObjectInstanceRef in
// ETS order. The Links attribute is used when present, else the Send and
// then Receive connectors.
func linkIDs(comRef *etree.Element) []string {
	if links, _ := rawAttr(comRef, "Links"); links != "" {
		if ids := splitLinks(links); len(ids) > 0 {
			return ids
		}
	}

	connectors := childElement(comRef, tagConnectors)
	if connectors == nil {
		return nil
	}
	var ids []string
	for _, tag := range []string{tagSend, tagReceive} {
		for _, c := range childElements(connectors, tag) {
			if ref := attr(c, "GroupAddressRefId"); ref != "" {
				ids = append(ids, shortID(ref))
			}
		}
	}
	return ids
}

// splitLinks splits a Links attribute on whitespace and commas, keeping order.
func splitLinks(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}
