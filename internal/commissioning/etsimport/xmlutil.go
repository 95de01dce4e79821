package etsimport

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/nerrad567/knxgraph-core/internal/knx"
)

// XML element names used across ETS documents.
const (
	tagArea                  = "Area"
	tagLine                  = "Line"
	tagSegment               = "Segment"
	tagDeviceInstance        = "DeviceInstance"
	tagIPConfig              = "IPConfig"
	tagModuleInstance        = "ModuleInstance"
	tagArgument              = "Argument"
	tagComObjectInstanceRef  = "ComObjectInstanceRef"
	tagConnectors            = "Connectors"
	tagSend                  = "Send"
	tagReceive               = "Receive"
	tagGroupRange            = "GroupRange"
	tagGroupAddress          = "GroupAddress"
	tagParameterInstanceRef  = "ParameterInstanceRef"
	tagProperty              = "Property"
	tagLocations             = "Locations"
	tagSpace                 = "Space"
	tagDeviceInstanceRef     = "DeviceInstanceRef"
	tagProjectInformation    = "ProjectInformation"
	tagInstallations         = "Installations"
	tagTopology              = "Topology"
	tagGroupAddresses        = "GroupAddresses"
	tagManufacturer          = "Manufacturer"
	tagHardware              = "Hardware"
	tagHardware2Program      = "Hardware2Program"
	tagApplicationProgramRef = "ApplicationProgramRef"
	tagProduct               = "Product"
	tagApplicationProgram    = "ApplicationProgram"
	tagComObject             = "ComObject"
	tagComObjectRef          = "ComObjectRef"
	tagChannel               = "Channel"
	tagModule                = "Module"
	tagParameterBlock        = "ParameterBlock"
	tagAllocator             = "Allocator"
	tagNumericArg            = "NumericArg"
	tagParameter             = "Parameter"
	tagParameterType         = "ParameterType"
	tagTypeRestriction       = "TypeRestriction"
	tagTypeNumber            = "TypeNumber"
	tagEnumeration           = "Enumeration"
	tagParameterRef          = "ParameterRef"
	tagParameterRefRef       = "ParameterRefRef"
	tagLanguage              = "Language"
	tagTranslationUnit       = "TranslationUnit"
	tagTranslationElement    = "TranslationElement"
	tagTranslation           = "Translation"
)

// parseXML parses a document and returns its document node, whose
// descendants include the root element.
func parseXML(name string, data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(stripBOM(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidXML, name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: %s: no root element", ErrInvalidXML, name)
	}
	return &doc.Element, nil
}

// attr returns the trimmed attribute value, or "" when absent or blank.
func attr(el *etree.Element, name string) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.SelectAttrValue(name, ""))
}

// rawAttr returns the untrimmed attribute value and whether it exists.
func rawAttr(el *etree.Element, name string) (string, bool) {
	if el == nil {
		return "", false
	}
	a := el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// firstAttr returns the first non-blank attribute among names.
func firstAttr(el *etree.Element, names ...string) string {
	for _, name := range names {
		if v := attr(el, name); v != "" {
			return v
		}
	}
	return ""
}

func requiredAttr(el *etree.Element, name string) (string, error) {
	if v := attr(el, name); v != "" {
		return v, nil
	}
	return "", &ElementError{
		Kind:      ErrMissingAttribute,
		Element:   el.Tag,
		ID:        attr(el, "Id"),
		Attribute: name,
	}
}

// descendants returns every element below el with the given tag, in
// document order.
func descendants(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(el)
	return out
}

// firstDescendant returns the first element below el with the given tag.
func firstDescendant(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := firstDescendant(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// hasDescendant reports whether any element below el has one of the tags.
func hasDescendant(el *etree.Element, tags ...string) bool {
	for _, c := range el.ChildElements() {
		for _, tag := range tags {
			if c.Tag == tag {
				return true
			}
		}
		if hasDescendant(c, tags...) {
			return true
		}
	}
	return false
}

func childElement(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func childElements(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// ancestor returns the nearest enclosing element with one of the tags.
func ancestor(el *etree.Element, tags ...string) *etree.Element {
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, tag := range tags {
			if p.Tag == tag {
				return p
			}
		}
	}
	return nil
}

// ancestors returns enclosing elements, nearest first.
func ancestors(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for p := el.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// ancestorAddress returns the Address attribute of the nearest ancestor
// with the given tag.
func ancestorAddress(el *etree.Element, tag string) string {
	return attr(ancestor(el, tag), "Address")
}

// stripPrefix removes prefix from value when present.
func stripPrefix(value, prefix string) string {
	return strings.TrimPrefix(value, prefix)
}

// shortID is knx.ShortID, kept local for readability at call sites.
func shortID(fullID string) string {
	return knx.ShortID(fullID)
}

// mediumName maps an ETS medium type reference to its common name.
func mediumName(ref string) string {
	switch ref {
	case "MT-0":
		return "TP"
	case "MT-1":
		return "PL"
	case "MT-2":
		return "RF"
	case "MT-5":
		return "IP"
	case "MT-6":
		return "IoT"
	default:
		return ref
	}
}

// manufacturerIDFromRef returns the leading "M-xxxx" segment of a catalog
// reference, or "".
func manufacturerIDFromRef(ref string) string {
	id, _, _ := strings.Cut(ref, "_")
	if strings.HasPrefix(id, "M-") {
		return id
	}
	return ""
}
