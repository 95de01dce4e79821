package etsimport

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// Configuration entry sources.
const (
	SourceParameter = "Parameter"
	SourceProperty  = "Property"
)

func parseParameters(root *etree.Element, prefix string, tr translations) map[string]parameterDef {
	out := make(map[string]parameterDef)
	for _, p := range descendants(root, tagParameter) {
		id, ok := rawAttr(p, "Id")
		if !ok {
			continue
		}
		def := parameterDef{
			name: localizedAttr(p, "Name", tr, prefix),
			text: localizedAttr(p, "Text", tr, prefix),
		}
		if typeRef, ok := rawAttr(p, "ParameterType"); ok {
			def.typeRef = stripPrefix(typeRef, prefix)
		}
		out[stripPrefix(id, prefix)] = def
	}
	return out
}

func parseParameterTypes(root *etree.Element, prefix string, tr translations) map[string]parameterTypeDef {
	out := make(map[string]parameterTypeDef)
	for _, pt := range descendants(root, tagParameterType) {
		id, ok := rawAttr(pt, "Id")
		if !ok {
			continue
		}
		def := parameterTypeDef{name: localizedAttr(pt, "Name", tr, prefix)}

		if restriction := childElement(pt, tagTypeRestriction); restriction != nil {
			def.kind = parameterTypeEnum
			def.base, _ = rawAttr(restriction, "Base")
			def.sizeBits = parseUint32Attr(restriction, "SizeInBit")
			def.enumValues = make(map[string]string)
			for _, entry := range childElements(restriction, tagEnumeration) {
				value := attr(entry, "Value")
				if value == "" {
					continue
				}
				if text := localizedAttr(entry, "Text", tr, prefix); text != "" {
					def.enumValues[value] = text
				}
			}
		} else if number := childElement(pt, tagTypeNumber); number != nil {
			def.kind = parameterTypeNumber
			def.sizeBits = parseUint32Attr(number, "SizeInBit")
			def.min = parseInt64Attr(number, "minInclusive")
			def.max = parseInt64Attr(number, "maxInclusive")
			def.base, _ = rawAttr(number, "Type")
		}

		out[stripPrefix(id, prefix)] = def
	}
	return out
}

func parseParameterRefs(root *etree.Element, prefix string, tr translations) map[string]parameterRefDef {
	out := make(map[string]parameterRefDef)
	for _, ref := range descendants(root, tagParameterRef) {
		id, ok := rawAttr(ref, "Id")
		if !ok {
			continue
		}
		refID, ok := rawAttr(ref, "RefId")
		if !ok {
			continue
		}
		out[stripPrefix(id, prefix)] = parameterRefDef{
			parameterID:  stripPrefix(refID, prefix),
			name:         localizedAttr(ref, "Name", tr, prefix),
			text:         localizedAttr(ref, "Text", tr, prefix),
			value:        attr(ref, "Value"),
			tag:          attr(ref, "Tag"),
			displayOrder: parseUint32Attr(ref, "DisplayOrder"),
		}
	}
	return out
}

// parseParameterContext maps each ParameterRefRef target to the UI path it
// appears under, e.g. "Channel: A / Block: Dimming".
func parseParameterContext(root *etree.Element, prefix string, tr translations) map[string]string {
	out := make(map[string]string)
	for _, node := range descendants(root, tagParameterRefRef) {
		refID, ok := rawAttr(node, "RefId")
		if !ok {
			continue
		}
		if path := contextPath(node, tr, prefix); path != "" {
			out[stripPrefix(refID, prefix)] = path
		}
	}
	return out
}

func contextPath(node *etree.Element, tr translations, prefix string) string {
	var parts []string
	for _, anc := range ancestors(node) {
		var label, name string
		switch anc.Tag {
		case tagChannel:
			label = "Channel"
			name = contextName(anc, tr, prefix)
		case tagModule:
			label = "Module"
			name = contextName(anc, tr, prefix)
		case tagParameterBlock:
			label = "Block"
			name = firstNonEmpty(
				translatedAttr(anc, "Text", tr, prefix),
				translatedAttr(anc, "Name", tr, prefix),
			)
			if name == "" {
				if paramRef, ok := rawAttr(anc, "ParamRefId"); ok {
					name = paramRefTitle(paramRef, tr, prefix)
				}
			}
			if name == "" {
				name = firstAttr(anc, "Text", "Name")
			}
		default:
			continue
		}
		if name != "" {
			parts = append(parts, label+": "+name)
		}
	}
	slices.Reverse(parts)
	return strings.Join(parts, " / ")
}

func contextName(el *etree.Element, tr translations, prefix string) string {
	return firstNonEmpty(
		translatedAttr(el, "Text", tr, prefix),
		translatedAttr(el, "Name", tr, prefix),
		attr(el, "Text"),
		attr(el, "Name"),
	)
}

// paramRefTitle looks up a block title through the parameter it is bound
// to, trying the ParameterRef and then its Parameter.
func paramRefTitle(paramRefID string, tr translations, prefix string) string {
	key := stripPrefix(paramRefID, prefix)
	if title := translationTitle(tr, key); title != "" {
		return title
	}
	if base, _, found := strings.Cut(key, "_R-"); found {
		return translationTitle(tr, base)
	}
	return ""
}

func translationTitle(tr translations, key string) string {
	return firstNonEmpty(tr.lookup(key, "Text"), tr.lookup(key, "Name"))
}

// deviceConfiguration extracts parameter and property values of a device.
func deviceConfiguration(device *etree.Element, app *appProgram) (map[string]string, []DeviceConfigEntry) {
	config := make(map[string]string)
	var entries []DeviceConfigEntry

	for _, ref := range descendants(device, tagParameterInstanceRef) {
		refID, _ := rawAttr(ref, "RefId")
		value, _ := rawAttr(ref, "Value")
		if refID == "" || value == "" {
			continue
		}
		entry := resolveParameter(app, refID, value)
		config[entry.Name] = entry.Value
		entries = append(entries, entry)
	}

	for _, prop := range descendants(device, tagProperty) {
		value, _ := rawAttr(prop, "Value")
		if value == "" {
			continue
		}
		id, _ := rawAttr(prop, "Id")
		name := "Property " + id
		config[name] = value
		entries = append(entries, DeviceConfigEntry{
			Name:   name,
			Value:  value,
			RefID:  id,
			Source: SourceProperty,
		})
	}
	return config, entries
}

// resolveParameter resolves display name, value label, type and context of
// one ParameterInstanceRef.
func resolveParameter(app *appProgram, refID, raw string) DeviceConfigEntry {
	short := shortID(refID)
	entry := DeviceConfigEntry{
		Name:     short,
		ValueRaw: raw,
		RefID:    short,
		Source:   SourceParameter,
	}
	if app == nil {
		entry.Value = raw
		return entry
	}

	refKey := stripPrefix(refID, app.prefix)
	entry.RefID = refKey

	paramID := ""
	ref, ok := app.parameterRefs[refKey]
	if !ok {
		ref, ok = app.parameterRefs[shortID(refKey)]
	}
	if ok {
		paramID = ref.parameterID
		if name := firstNonEmpty(ref.text, ref.name); name != "" {
			entry.Name = name
		}
	}
	entry.Context = app.parameterContext[refKey]

	def, ok := app.parameters[paramID]
	if !ok || paramID == "" {
		def, ok = app.parameters[shortID(refKey)]
	}
	if ok {
		if entry.Name == short {
			if name := firstNonEmpty(def.text, def.name); name != "" {
				entry.Name = name
			}
		}
		if def.typeRef != "" {
			entry.ParameterType = def.typeRef
			if pt, ok := app.parameterTypes[def.typeRef]; ok {
				if pt.name != "" {
					entry.ParameterType = pt.name
				}
				if pt.kind == parameterTypeEnum {
					entry.ValueLabel = pt.enumValues[raw]
				}
			}
		}
	}

	entry.Value = raw
	if entry.ValueLabel != "" {
		entry.Value = entry.ValueLabel
	}
	return entry
}
