package etsimport

import "github.com/beevik/etree"

// deviceRef is the address and name a DeviceInstanceRef resolves to.
type deviceRef struct {
	address string
	name    string
}

// extractLocations builds the building structure from the top-level Space
// elements of each Locations block.
func extractLocations(root *etree.Element, devices []Device) []BuildingSpace {
	index := make(map[string]deviceRef, len(devices))
	for _, d := range devices {
		index[d.InstanceID] = deviceRef{address: d.IndividualAddress, name: d.Name}
	}

	spaces := []BuildingSpace{}
	for _, loc := range descendants(root, tagLocations) {
		for _, el := range childElements(loc, tagSpace) {
			spaces = append(spaces, parseSpace(el, index))
		}
	}
	return spaces
}

func parseSpace(el *etree.Element, index map[string]deviceRef) BuildingSpace {
	id, _ := rawAttr(el, "Id")
	spaceType, ok := rawAttr(el, "Type")
	if !ok {
		spaceType = "Space"
	}

	space := BuildingSpace{
		ID:               id,
		Name:             attr(el, "Name"),
		SpaceType:        spaceType,
		Number:           attr(el, "Number"),
		DefaultLine:      attr(el, "DefaultLine"),
		Description:      attr(el, "Description"),
		CompletionStatus: attr(el, "CompletionStatus"),
		Devices:          []BuildingDeviceRef{},
		Children:         []BuildingSpace{},
	}

	for _, ref := range childElements(el, tagDeviceInstanceRef) {
		refID, ok := rawAttr(ref, "RefId")
		if !ok {
			continue
		}
		dr := index[refID]
		space.Devices = append(space.Devices, BuildingDeviceRef{
			InstanceID: refID,
			Address:    dr.address,
			Name:       dr.name,
		})
	}
	for _, child := range childElements(el, tagSpace) {
		space.Children = append(space.Children, parseSpace(child, index))
	}
	return space
}
