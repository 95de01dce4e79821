package etsimport

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// flag is a tri-state communication object flag.
type flag int8

const (
	flagUnset flag = iota
	flagOff
	flagOn
)

func parseFlag(el *etree.Element, name string) flag {
	v, _ := rawAttr(el, name)
	switch v {
	case "Enabled", "true", "True":
		return flagOn
	case "Disabled", "false", "False":
		return flagOff
	default:
		return flagUnset
	}
}

func (f flag) or(fallback flag) flag {
	if f == flagUnset {
		return fallback
	}
	return f
}

// flagSet holds the six flags as declared, before inheritance.
type flagSet struct {
	communication, read, write, transmit, update, readOnInit flag
}

func flagsFromElement(el *etree.Element) flagSet {
	return flagSet{
		communication: parseFlag(el, "CommunicationFlag"),
		read:          parseFlag(el, "ReadFlag"),
		write:         parseFlag(el, "WriteFlag"),
		transmit:      parseFlag(el, "TransmitFlag"),
		update:        parseFlag(el, "UpdateFlag"),
		readOnInit:    parseFlag(el, "ReadOnInitFlag"),
	}
}

// withFallback fills each unset flag from fallback independently.
func (f flagSet) withFallback(fallback flagSet) flagSet {
	return flagSet{
		communication: f.communication.or(fallback.communication),
		read:          f.read.or(fallback.read),
		write:         f.write.or(fallback.write),
		transmit:      f.transmit.or(fallback.transmit),
		update:        f.update.or(fallback.update),
		readOnInit:    f.readOnInit.or(fallback.readOnInit),
	}
}

func (f flagSet) isTransmitter() bool {
	return f.transmit == flagOn || f.update == flagOn
}

func (f flagSet) isReceiver() bool {
	return f.write == flagOn || f.read == flagOn
}

// resolve converts to ObjectFlags; unset flags become false.
func (f flagSet) resolve() ObjectFlags {
	return ObjectFlags{
		Communication: f.communication == flagOn,
		Read:          f.read == flagOn,
		Write:         f.write == flagOn,
		Transmit:      f.transmit == flagOn,
		Update:        f.update == flagOn,
		ReadOnInit:    f.readOnInit == flagOn,
	}
}

// comObjectDef is a ComObject template.
type comObjectDef struct {
	flags         flagSet
	datapointType string
	number        *uint32
	objectSize    string
	baseNumberRef string
	description   string
	name          string
	text          string
	functionText  string
}

// comObjectRefDef is a ComObjectRef, a device-class override of a template.
type comObjectRefDef struct {
	refID         string
	name          string
	text          string
	functionText  string
	datapointType string
	objectSize    string
	flags         flagSet
	channel       string
	number        *uint32
	description   string
}

type allocatorDef struct {
	start uint32
	end   *uint32
}

type moduleArgument struct {
	name      string
	allocates *uint32
}

type numericArg struct {
	allocatorRefID string
	baseValue      string
	value          *uint32
}

type parameterTypeKind int

const (
	parameterTypeUnknown parameterTypeKind = iota
	parameterTypeEnum
	parameterTypeNumber
)

type parameterTypeDef struct {
	name       string
	kind       parameterTypeKind
	enumValues map[string]string
	min, max   *int64
	sizeBits   *uint32
	base       string
}

type parameterDef struct {
	name    string
	text    string
	typeRef string
}

type parameterRefDef struct {
	parameterID  string
	name         string
	text         string
	value        string
	tag          string
	displayOrder *uint32
}

// appProgram is one parsed application program. Map keys are element Ids
// with the "<appId>_" prefix removed unless noted otherwise.
type appProgram struct {
	id     string
	prefix string

	name        string
	version     string
	number      string
	programType string
	maskVersion string

	arguments        map[string]string // argument key → display name
	comObjects       map[string]comObjectDef
	comObjectRefs    map[string]comObjectRefDef
	parameters       map[string]parameterDef
	parameterTypes   map[string]parameterTypeDef
	parameterRefs    map[string]parameterRefDef
	parameterContext map[string]string

	// The maps below are keyed by the raw Id or RefId.
	allocators      map[string]allocatorDef
	moduleArguments map[string]moduleArgument
	numericArgs     map[string]numericArg
}

// appProgramPath returns the archive entry of an application program,
// e.g. "M-0083/M-0083_A-00B0-32-0DFC.xml".
func appProgramPath(appID string) string {
	manufacturer, _, _ := strings.Cut(appID, "_")
	return manufacturer + "/" + appID + ".xml"
}

// parseAppProgram builds an appProgram from its document.
func parseAppProgram(root *etree.Element, appID, language string) *appProgram {
	prefix := appID + "_"
	tr := buildTranslations(root, prefix, language)

	app := &appProgram{
		id:               appID,
		prefix:           prefix,
		arguments:        make(map[string]string),
		comObjects:       parseComObjects(root, prefix, tr),
		comObjectRefs:    parseComObjectRefs(root, prefix, tr),
		parameters:       parseParameters(root, prefix, tr),
		parameterTypes:   parseParameterTypes(root, prefix, tr),
		parameterRefs:    parseParameterRefs(root, prefix, tr),
		parameterContext: parseParameterContext(root, prefix, tr),
		allocators:       make(map[string]allocatorDef),
		moduleArguments:  make(map[string]moduleArgument),
		numericArgs:      make(map[string]numericArg),
	}

	for _, arg := range descendants(root, tagArgument) {
		id, ok := rawAttr(arg, "Id")
		if !ok {
			continue
		}
		name := localizedAttr(arg, "Name", tr, prefix)
		if name != "" {
			app.arguments[stripPrefix(id, prefix)] = name
		}

		allocates := parseUint32Attr(arg, "Allocates")
		if _, hasName := rawAttr(arg, "Name"); allocates == nil && !hasName {
			continue
		}
		app.moduleArguments[id] = moduleArgument{name: name, allocates: allocates}
	}

	for _, alloc := range descendants(root, tagAllocator) {
		id, ok := rawAttr(alloc, "Id")
		if !ok {
			continue
		}
		def := allocatorDef{end: parseUint32Attr(alloc, "maxInclusive")}
		if start := parseUint32Attr(alloc, "Start"); start != nil {
			def.start = *start
		}
		app.allocators[id] = def
	}

	for _, num := range descendants(root, tagNumericArg) {
		refID, ok := rawAttr(num, "RefId")
		if !ok {
			continue
		}
		allocRef, _ := rawAttr(num, "AllocatorRefId")
		baseValue, _ := rawAttr(num, "BaseValue")
		app.numericArgs[refID] = numericArg{
			allocatorRefID: allocRef,
			baseValue:      baseValue,
			value:          parseUint32Attr(num, "Value"),
		}
	}

	if node := firstDescendant(root, tagApplicationProgram); node != nil {
		app.name = localizedAttr(node, "Name", tr, prefix)
		app.version = attr(node, "ApplicationVersion")
		app.number = attr(node, "ApplicationNumber")
		app.programType = attr(node, "ProgramType")
		app.maskVersion = attr(node, "MaskVersion")
	}
	return app
}

func parseComObjects(root *etree.Element, prefix string, tr translations) map[string]comObjectDef {
	out := make(map[string]comObjectDef)
	for _, obj := range descendants(root, tagComObject) {
		id, ok := rawAttr(obj, "Id")
		if !ok {
			continue
		}
		baseRef, _ := rawAttr(obj, "BaseNumber")
		out[stripPrefix(id, prefix)] = comObjectDef{
			flags:         flagsFromElement(obj),
			datapointType: attr(obj, "DatapointType"),
			number:        parseUint32Attr(obj, "Number"),
			objectSize:    attr(obj, "ObjectSize"),
			baseNumberRef: baseRef,
			description:   localizedAttr(obj, "Description", tr, prefix),
			name:          localizedAttr(obj, "Name", tr, prefix),
			text:          localizedAttr(obj, "Text", tr, prefix),
			functionText:  localizedAttr(obj, "FunctionText", tr, prefix),
		}
	}
	return out
}

func parseComObjectRefs(root *etree.Element, prefix string, tr translations) map[string]comObjectRefDef {
	out := make(map[string]comObjectRefDef)
	for _, ref := range descendants(root, tagComObjectRef) {
		id, ok := rawAttr(ref, "Id")
		if !ok {
			continue
		}
		def := comObjectRefDef{
			name:          localizedAttr(ref, "Name", tr, prefix),
			text:          localizedAttr(ref, "Text", tr, prefix),
			functionText:  localizedAttr(ref, "FunctionText", tr, prefix),
			datapointType: attr(ref, "DatapointType"),
			objectSize:    attr(ref, "ObjectSize"),
			flags:         flagsFromElement(ref),
			number:        parseUint32Attr(ref, "Number"),
			description:   localizedAttr(ref, "Description", tr, prefix),
		}
		if refID, ok := rawAttr(ref, "RefId"); ok {
			def.refID = stripPrefix(refID, prefix)
		}
		if ch := ancestor(ref, tagChannel, tagModule); ch != nil {
			def.channel = firstNonEmpty(
				localizedAttr(ch, "Text", tr, prefix),
				localizedAttr(ch, "Name", tr, prefix),
			)
		}
		out[stripPrefix(id, prefix)] = def
	}
	return out
}

func parseUint32Attr(el *etree.Element, name string) *uint32 {
	v, ok := rawAttr(el, name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil
	}
	u := uint32(n)
	return &u
}

func parseInt64Attr(el *etree.Element, name string) *int64 {
	v, ok := rawAttr(el, name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
