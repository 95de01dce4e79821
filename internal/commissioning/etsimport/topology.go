package etsimport

import (
	"github.com/beevik/etree"
)

// extractTopology reads Area and Line metadata. Elements without an
// Address (or a Line outside an addressed Area) are skipped.
func extractTopology(root *etree.Element, diag *diagnostics) ([]Area, []Line) {
	areas := []Area{}
	lines := []Line{}

	for _, el := range descendants(root, tagArea) {
		address, err := requiredAttr(el, "Address")
		if err != nil {
			diag.skipped(err)
			continue
		}
		areas = append(areas, Area{
			Address:          address,
			Name:             attr(el, "Name"),
			Description:      attr(el, "Description"),
			Comment:          attr(el, "Comment"),
			CompletionStatus: attr(el, "CompletionStatus"),
		})
	}

	for _, el := range descendants(root, tagLine) {
		line, err := requiredAttr(el, "Address")
		if err != nil {
			diag.skipped(err)
			continue
		}
		area := ancestorAddress(el, tagArea)
		if area == "" {
			diag.skipped(&ElementError{
				Kind:      ErrMissingAncestor,
				Element:   tagLine,
				ID:        attr(el, "Id"),
				Attribute: tagArea,
			})
			continue
		}

		medium := attr(childElement(el, tagSegment), "MediumTypeRefId")
		if medium == "" {
			medium = attr(el, "MediumTypeRefId")
		}
		if medium != "" {
			medium = mediumName(medium)
		}

		lines = append(lines, Line{
			Area:             area,
			Line:             line,
			Name:             attr(el, "Name"),
			Description:      attr(el, "Description"),
			Comment:          attr(el, "Comment"),
			MediumType:       medium,
			CompletionStatus: attr(el, "CompletionStatus"),
		})
	}
	return areas, lines
}
