package etsimport

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/nerrad567/knxgraph-core/internal/knx"
)

// deviceResolver resolves DeviceInstance elements against the catalog.
type deviceResolver struct {
	catalog       *catalog
	manufacturers map[string]string
	groups        map[string]*GroupAddressInfo // by full and short Id
	diag          *diagnostics
}

func (r *deviceResolver) resolveAll(root *etree.Element) []Device {
	var devices []Device
	for _, el := range descendants(root, tagDeviceInstance) {
		dev, err := r.resolve(el)
		if err != nil {
			r.diag.skipped(err)
			continue
		}
		devices = append(devices, dev)
	}
	return devices
}

func (r *deviceResolver) resolve(el *etree.Element) (Device, error) {
	id, err := requiredAttr(el, "Id")
	if err != nil {
		return Device{}, err
	}

	area := ancestorAddress(el, tagArea)
	line := ancestorAddress(el, tagLine)
	address := attr(el, "Address")

	dev := Device{
		InstanceID:       id,
		Description:      attr(el, "Description"),
		Comment:          attr(el, "Comment"),
		SerialNumber:     attr(el, "SerialNumber"),
		LastModified:     attr(el, "LastModified"),
		LastDownload:     attr(el, "LastDownload"),
		ProductRefID:     attr(el, "ProductRefId"),
		Hardware2Program: attr(el, "Hardware2ProgramRefId"),
	}
	applySegment(&dev, el)
	applyIPConfig(&dev, el)

	manufacturer := manufacturerIDFromRef(dev.ProductRefID)
	if manufacturer == "" {
		manufacturer = manufacturerIDFromRef(dev.Hardware2Program)
	}
	dev.Manufacturer = r.manufacturers[manufacturer]

	hw := r.catalog.hardwareFor(manufacturer)
	if hw != nil {
		coupler, ok := hw.coupler[dev.ProductRefID]
		if !ok {
			coupler = hw.coupler[dev.Hardware2Program]
		}
		dev.IsCoupler = coupler
		if p, ok := hw.products[dev.ProductRefID]; ok {
			dev.Product = p.name
			dev.ProductReference = p.orderNumber
		}
	}
	if address == "" && dev.IsCoupler {
		address = "0"
	}
	if address == "" && area == "" && line == "" {
		r.diag.warn(WarnMissingAttribute, tagDeviceInstance, id,
			"device %s has neither Address nor enclosing topology", id)
	}

	dev.IndividualAddress = knx.FormatIndividualAddress(area, line, address, id)
	dev.Name = firstNonEmpty(
		attr(el, "Name"),
		dev.Product,
		dev.ProductReference,
		dev.Manufacturer,
		"Device "+dev.IndividualAddress,
	)

	app := r.catalog.program(hw, dev.Hardware2Program)
	if app != nil {
		dev.AppProgramID = app.id
		dev.AppProgramName = app.name
		dev.AppProgramVersion = app.version
		dev.AppProgramNumber = app.number
		dev.AppProgramType = app.programType
		dev.AppMaskVersion = app.maskVersion
	}

	modules := moduleArguments(el)
	for _, comRef := range descendants(el, tagComObjectInstanceRef) {
		dev.GroupLinks = append(dev.GroupLinks, r.resolveLinks(comRef, app, modules)...)
	}
	if dev.GroupLinks == nil {
		dev.GroupLinks = []GroupLink{}
	}

	dev.Configuration, dev.ConfigurationEntries = deviceConfiguration(el, app)
	return dev, nil
}

func applySegment(dev *Device, el *etree.Element) {
	if seg := ancestor(el, tagSegment); seg != nil {
		dev.SegmentID = attr(seg, "Id")
		dev.SegmentNumber = attr(seg, "Number")
		dev.SegmentDomainAddress = attr(seg, "DomainAddress")
		if medium := attr(seg, "MediumTypeRefId"); medium != "" {
			dev.SegmentMediumType = mediumName(medium)
		}
	}
	dev.MediumType = dev.SegmentMediumType
	if dev.MediumType == "" {
		if medium := attr(ancestor(el, tagLine), "MediumTypeRefId"); medium != "" {
			dev.MediumType = mediumName(medium)
		}
	}
}

func applyIPConfig(dev *Device, el *etree.Element) {
	ip := childElement(el, tagIPConfig)
	if ip == nil {
		ip = firstDescendant(el, tagIPConfig)
	}
	if ip == nil {
		return
	}
	dev.IPAssignment = attr(ip, "Assign")
	dev.IPAddress = attr(ip, "IPAddress")
	dev.IPSubnetMask = attr(ip, "SubnetMask")
	dev.IPDefaultGateway = attr(ip, "DefaultGateway")
	dev.MACAddress = attr(ip, "MACAddress")
}

// moduleArguments maps ModuleInstance Id → Argument RefId → Value. Nested
// sub-module instances keep their own arguments.
func moduleArguments(device *etree.Element) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, mod := range descendants(device, tagModuleInstance) {
		id, _ := rawAttr(mod, "Id")
		if id == "" {
			continue
		}
		args := make(map[string]string)
		for _, arg := range descendants(mod, tagArgument) {
			if ancestor(arg, tagModuleInstance) != mod {
				continue // belongs to a nested sub-module instance
			}
			refID, _ := rawAttr(arg, "RefId")
			if refID == "" {
				continue
			}
			value, _ := rawAttr(arg, "Value")
			args[refID] = value
		}
		if len(args) > 0 {
			out[id] = args
		}
	}
	return out
}

// resolveLinks produces one GroupLink per group address of a
// ComObjectInstanceRef.
func (r *deviceResolver) resolveLinks(comRef *etree.Element, app *appProgram, modules map[string]map[string]string) []GroupLink {
	refID, _ := rawAttr(comRef, "RefId")
	if refID == "" {
		return nil
	}
	ids := linkIDs(comRef)
	if len(ids) == 0 {
		return nil
	}

	moduleID, _, _ := strings.Cut(refID, "_O-")
	module := moduleContext{values: modules[moduleID]}
	if base, _, _ := strings.Cut(moduleID, "_SM-"); base != moduleID {
		module.baseValues = modules[base]
	}
	args := resolveModuleArguments(module.arguments(), app)

	ref, obj := lookupComObject(app, refID)
	data := resolveComData(ref, obj)
	number := objectNumber(data.number, obj, module, app, refID)

	baseName := resolveObjectName(ref, obj, args)
	functionText := resolveTemplate(refOrObj(ref, obj,
		func(d *comObjectRefDef) string { return d.functionText },
		func(d *comObjectDef) string { return d.functionText }), args)
	nameRaw := resolveTemplate(refOrObj(ref, obj,
		func(d *comObjectRefDef) string { return d.name },
		func(d *comObjectDef) string { return d.name }), args)
	text := resolveTemplate(refOrObj(ref, obj,
		func(d *comObjectRefDef) string { return d.text },
		func(d *comObjectDef) string { return d.text }), args)

	namePart := firstNonEmpty(text, nameRaw)
	var parts []string
	if number != nil {
		parts = append(parts, fmt.Sprintf("[#%d]", *number))
	}
	if namePart != "" {
		parts = append(parts, "["+namePart+"]")
	}
	if strings.TrimSpace(functionText) != "" && !strings.EqualFold(namePart, functionText) {
		parts = append(parts, functionText)
	}

	var flags *ObjectFlags
	if ref != nil || obj != nil {
		resolved := data.flags.resolve()
		flags = &resolved
	}
	dpt := normaliseDPT(data.datapointType)

	links := make([]GroupLink, 0, len(ids))
	sendingAddress := ""
	for i, linkID := range ids {
		ga := r.groups[linkID]
		if ga == nil {
			ga = r.groups[shortID(linkID)]
		}
		address := linkID
		if ga != nil {
			address = ga.Address
		}
		if i == 0 {
			sendingAddress = address
		}

		objectName := strings.Join(parts, " ")
		if objectName == "" {
			objectName = baseName
		}
		if objectName == "" && ga != nil && strings.TrimSpace(ga.Name) != "" {
			objectName = ga.Name
		}
		if objectName == "" {
			objectName = refID
		}

		links = append(links, GroupLink{
			ComObjectRefID:     refID,
			ObjectName:         objectName,
			ObjectNameRaw:      nameRaw,
			ObjectText:         text,
			ObjectFunctionText: functionText,
			GroupAddress:       address,
			IsTransmitter:      data.flags.isTransmitter(),
			IsReceiver:         data.flags.isReceiver(),
			ETSSendingAddress:  sendingAddress,
			ETSSending:         i == 0,
			ETSReceiving:       i != 0,
			Channel:            data.channel,
			DatapointType:      data.datapointType,
			DPT:                dpt,
			Number:             number,
			Description:        data.description,
			ObjectSize:         data.objectSize,
			Security:           attr(comRef, "Security"),
			BuildingFunction:   firstAttr(comRef, "BuildingFunction", "BuildingFunctionRefId", "BuildingFunctionId"),
			BuildingPart:       firstAttr(comRef, "BuildingPart", "BuildingPartRefId", "BuildingPartId"),
			Flags:              flags,
		})
	}
	return links
}
