package etsimport

import (
	"slices"
	"strconv"

	"github.com/beevik/etree"

	"github.com/nerrad567/knxgraph-core/internal/knx"
)

// extractGroupAddresses reads GroupAddress definitions, rendering each
// 16-bit Address in the given style. Entries without Id or Address, or
// with an Address that is not a 16-bit integer, are skipped.
func extractGroupAddresses(root *etree.Element, style knx.GroupAddressStyle, diag *diagnostics) []GroupAddressInfo {
	groups := []GroupAddressInfo{}

	for _, el := range descendants(root, tagGroupAddress) {
		id, err := requiredAttr(el, "Id")
		if err != nil {
			diag.skipped(err)
			continue
		}
		raw, err := requiredAttr(el, "Address")
		if err != nil {
			diag.skipped(err)
			continue
		}
		value, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			diag.skipped(&ElementError{
				Kind:      ErrInvalidAttribute,
				Element:   tagGroupAddress,
				ID:        id,
				Attribute: "Address",
				Value:     raw,
				Expected:  "16-bit unsigned integer",
			})
			continue
		}

		name, _ := rawAttr(el, "Name")
		dpt := attr(el, "DatapointType")
		info := GroupAddressInfo{
			ID:            id,
			Address:       knx.FormatGroupAddress(uint16(value), style),
			Name:          name,
			Description:   attr(el, "Description"),
			Comment:       attr(el, "Comment"),
			Security:      attr(el, "Security"),
			DatapointType: dpt,
			DPT:           normaliseDPT(dpt),
			LinkedDevices: []string{},
		}

		ranges := groupRanges(el)
		if len(ranges) > 0 {
			info.MainGroupName = attr(ranges[0], "Name")
			info.MainGroupDescription = attr(ranges[0], "Description")
			info.MainGroupComment = attr(ranges[0], "Comment")
		}
		if len(ranges) > 1 {
			info.MiddleGroupName = attr(ranges[1], "Name")
			info.MiddleGroupDescription = attr(ranges[1], "Description")
			info.MiddleGroupComment = attr(ranges[1], "Comment")
		}

		groups = append(groups, info)
	}
	return groups
}

// groupRanges returns the enclosing GroupRange elements, outermost first.
func groupRanges(el *etree.Element) []*etree.Element {
	var ranges []*etree.Element
	for _, anc := range ancestors(el) {
		if anc.Tag == tagGroupRange {
			ranges = append(ranges, anc)
		}
	}
	slices.Reverse(ranges)
	return ranges
}

// indexGroupAddresses maps both the full and the short Id of each group
// address to its entry. Entries point into groups.
func indexGroupAddresses(groups []GroupAddressInfo) map[string]*GroupAddressInfo {
	byID := make(map[string]*GroupAddressInfo, 2*len(groups))
	for i := range groups {
		ga := &groups[i]
		byID[ga.ID] = ga
		byID[shortID(ga.ID)] = ga
	}
	return byID
}

// linkGroupAddresses runs after device resolution. It fills the reverse
// device index and backfills a missing datapoint type from the first link
// on that address that declares one.
func linkGroupAddresses(groups []GroupAddressInfo, devices []Device) {
	byAddress := make(map[string]*GroupAddressInfo, len(groups))
	for i := range groups {
		if _, dup := byAddress[groups[i].Address]; !dup {
			byAddress[groups[i].Address] = &groups[i]
		}
	}

	for _, dev := range devices {
		for _, link := range dev.GroupLinks {
			ga, ok := byAddress[link.GroupAddress]
			if !ok {
				continue
			}
			ga.LinkedDevices = append(ga.LinkedDevices, dev.IndividualAddress)
			if ga.DatapointType == "" && link.DatapointType != "" {
				ga.DatapointType = link.DatapointType
				ga.DPT = normaliseDPT(link.DatapointType)
			}
		}
	}
}
