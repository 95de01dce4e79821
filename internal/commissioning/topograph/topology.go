package topograph

import (
	"strconv"
	"strings"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
	"github.com/nerrad567/knxgraph-core/internal/knx"
)

// unknownBucket groups devices whose area or line cannot be read from
// their individual address.
const unknownBucket = "unknown"

// BuildTopologyGraph nests every device under a line node and every line
// under an area node. Area and line nodes are created on first use, in
// device order.
func BuildTopologyGraph(p *etsimport.Project) Graph {
	areaInfo := make(map[string]etsimport.Area, len(p.Areas))
	for _, a := range p.Areas {
		if _, dup := areaInfo[a.Address]; !dup {
			areaInfo[a.Address] = a
		}
	}
	lineInfo := make(map[string]etsimport.Line, len(p.Lines))
	for _, l := range p.Lines {
		key := l.Area + "." + l.Line
		if _, dup := lineInfo[key]; !dup {
			lineInfo[key] = l
		}
	}

	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	areaNodes := make(map[string]string)
	lineNodes := make(map[string]string)
	ids := newIDSet()

	for i := range p.Devices {
		dev := &p.Devices[i]
		area, line := knx.AreaLine(dev.IndividualAddress)
		if area == "" {
			area = unknownBucket
		}
		if line == "" {
			line = unknownBucket
		}

		areaID, ok := areaNodes[area]
		if !ok {
			areaID = "area_" + area
			g.Nodes = append(g.Nodes, areaNode(areaID, area, areaInfo))
			areaNodes[area] = areaID
		}

		lineKey := area + "." + line
		lineID, ok := lineNodes[lineKey]
		if !ok {
			lineID = "line_" + area + "_" + line
			n := lineNode(lineID, area, line, lineInfo)
			n.ParentID = areaID
			g.Nodes = append(g.Nodes, n)
			lineNodes[lineKey] = lineID
		}

		g.Nodes = append(g.Nodes, Node{
			ID:         ids.claim(deviceID(dev.IndividualAddress)),
			Kind:       KindDevice,
			Label:      dev.IndividualAddress + "\n" + dev.Name,
			ParentID:   lineID,
			Properties: deviceProperties(dev),
		})
	}
	return g
}

func areaNode(id, area string, info map[string]etsimport.Area) Node {
	props := properties{"area": area, "address": area}
	label := "Area " + area
	if area == unknownBucket {
		props["name"] = "Unknown"
		label = "Area Unknown"
	}
	if a, ok := info[area]; ok {
		props.set("name", a.Name)
		props.set("description", a.Description)
		props.set("comment", a.Comment)
	}
	return Node{ID: id, Kind: KindArea, Label: label, Properties: props}
}

func lineNode(id, area, line string, info map[string]etsimport.Line) Node {
	key := area + "." + line
	props := properties{"area": area, "line": line, "address": key}
	label := "Line " + key
	if line == unknownBucket {
		props["name"] = "Unknown"
		label = "Line Unknown"
	}
	if l, ok := info[key]; ok {
		props.set("name", l.Name)
		props.set("description", l.Description)
		props.set("comment", l.Comment)
		props.set("medium", l.MediumType)
	}
	return Node{ID: id, Kind: KindLine, Label: label, Properties: props}
}

// deviceID derives a node id from an individual address: "1.1.5" → "device_1_1_5".
func deviceID(address string) string {
	return "device_" + strings.ReplaceAll(address, ".", "_")
}

func deviceProperties(dev *etsimport.Device) map[string]string {
	area, line := knx.AreaLine(dev.IndividualAddress)
	if area == "" {
		area = unknownBucket
	}
	if line == "" {
		line = unknownBucket
	}

	props := properties{
		"address": dev.IndividualAddress,
		"name":    dev.Name,
		"area":    area,
		"line":    line,
	}
	props.set("manufacturer", dev.Manufacturer)
	props.set("product", dev.Product)
	props.set("product_reference", dev.ProductReference)
	props.set("description", dev.Description)
	props.set("comment", dev.Comment)
	props.set("serial_number", dev.SerialNumber)
	props.set("app_program_name", dev.AppProgramName)
	props.set("app_program_version", dev.AppProgramVersion)
	props.set("app_program_number", dev.AppProgramNumber)
	props.set("app_program_type", dev.AppProgramType)
	props.set("app_mask_version", dev.AppMaskVersion)
	props.set("medium", dev.MediumType)
	props.set("segment_id", dev.SegmentID)
	props.set("segment_number", dev.SegmentNumber)
	props.set("segment_domain_address", dev.SegmentDomainAddress)
	props.set("segment_medium", dev.SegmentMediumType)
	props.set("ip_assignment", dev.IPAssignment)
	props.set("ip_address", dev.IPAddress)
	props.set("ip_subnet_mask", dev.IPSubnetMask)
	props.set("ip_default_gateway", dev.IPDefaultGateway)
	props.set("mac_address", dev.MACAddress)
	props.set("last_modified", dev.LastModified)
	props.set("last_download", dev.LastDownload)
	if kind := knx.CouplerKind(dev.IndividualAddress); kind != "" {
		props["is_coupler"] = "true"
		props["coupler_kind"] = kind
	}
	return props
}

// idSet hands out unique node ids. A repeated id gets a numeric suffix,
// so malformed projects with colliding addresses keep every device.
type idSet map[string]int

func newIDSet() idSet { return make(idSet) }

func (s idSet) claim(id string) string {
	n := s[id]
	s[id] = n + 1
	if n == 0 {
		return id
	}
	for i := n; ; i++ {
		candidate := id + "_dup" + strconv.Itoa(i)
		if _, taken := s[candidate]; !taken {
			s[candidate] = 1
			return candidate
		}
	}
}
