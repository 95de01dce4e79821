package topograph

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
)

// groupObject is an object node awaiting edge construction.
type groupObject struct {
	id          string
	transmitter bool
	receiver    bool
}

// BuildGroupAddressGraph emits device nodes, one object node per group
// link (parented to its device) and one node per distinct group address.
//
// Objects sharing a group address are joined in a star. When exactly one
// of them transmits and at least one receives, edges run from the
// transmitter to every other object and are marked directed; otherwise
// the star is centred on the object with the lowest id and marked
// undirected.
func BuildGroupAddressGraph(p *etsimport.Project) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	ids := newIDSet()
	byAddress := make(map[string][]groupObject)

	for i := range p.Devices {
		dev := &p.Devices[i]
		devID := ids.claim(deviceID(dev.IndividualAddress))
		g.Nodes = append(g.Nodes, Node{
			ID:         devID,
			Kind:       KindDevice,
			Label:      dev.IndividualAddress + "\n" + dev.Name,
			Properties: deviceProperties(dev),
		})

		links := slices.Clone(dev.GroupLinks)
		slices.SortStableFunc(links, func(a, b etsimport.GroupLink) int {
			return cmp.Or(
				cmp.Compare(a.GroupAddress, b.GroupAddress),
				cmp.Compare(a.ObjectName, b.ObjectName),
			)
		})

		for idx := range links {
			link := &links[idx]
			objID := ids.claim(devID + "_obj_" + strconv.Itoa(idx))
			g.Nodes = append(g.Nodes, Node{
				ID:         objID,
				Kind:       KindGroupObject,
				Label:      link.ObjectName,
				ParentID:   devID,
				Properties: objectProperties(link),
			})
			byAddress[link.GroupAddress] = append(byAddress[link.GroupAddress], groupObject{
				id:          objID,
				transmitter: link.IsTransmitter,
				receiver:    link.IsReceiver,
			})
		}
	}

	seen := make(map[string]bool, len(p.GroupAddresses))
	for i := range p.GroupAddresses {
		ga := &p.GroupAddresses[i]
		if seen[ga.Address] {
			continue
		}
		seen[ga.Address] = true
		g.Nodes = append(g.Nodes, Node{
			ID:         ids.claim(groupAddressID(ga.Address)),
			Kind:       KindGroupAddress,
			Label:      ga.Address + "\n" + ga.Name,
			Properties: groupAddressProperties(ga),
		})
	}

	addresses := make([]string, 0, len(byAddress))
	for addr := range byAddress {
		addresses = append(addresses, addr)
	}
	slices.Sort(addresses)
	for _, addr := range addresses {
		g.Edges = append(g.Edges, starEdges(addr, byAddress[addr])...)
	}
	return g
}

func starEdges(address string, objects []groupObject) []Edge {
	if len(objects) < 2 {
		return nil
	}
	slices.SortFunc(objects, func(a, b groupObject) int { return cmp.Compare(a.id, b.id) })

	var transmitters, receivers int
	hub := -1
	for i, o := range objects {
		if o.transmitter {
			transmitters++
			hub = i
		}
		if o.receiver {
			receivers++
		}
	}

	direction := DirectionDirected
	if transmitters != 1 || receivers == 0 {
		direction = DirectionUndirected
		hub = 0
	}

	edges := make([]Edge, 0, len(objects)-1)
	source := objects[hub].id
	for i, o := range objects {
		if i == hub {
			continue
		}
		edges = append(edges, Edge{
			ID:     source + "_to_" + o.id,
			Source: source,
			Target: o.id,
			Kind:   EdgeLinks,
			Label:  direction,
			Properties: map[string]string{
				"direction":     direction,
				"group_address": address,
			},
		})
	}
	return edges
}

// groupAddressID derives a node id from a group address: "1/2/3" → "ga_1_2_3".
func groupAddressID(address string) string {
	return "ga_" + strings.ReplaceAll(address, "/", "_")
}

func objectProperties(link *etsimport.GroupLink) map[string]string {
	props := properties{
		"group_address":  link.GroupAddress,
		"object_name":    link.ObjectName,
		"is_transmitter": strconv.FormatBool(link.IsTransmitter),
		"is_receiver":    strconv.FormatBool(link.IsReceiver),
	}
	props.set("object_name_raw", link.ObjectNameRaw)
	props.set("object_text", link.ObjectText)
	props.set("object_function_text", link.ObjectFunctionText)
	props.set("datapoint_type", link.DatapointType)
	props.set("description", link.Description)
	if link.Number != nil {
		props["number"] = strconv.FormatUint(uint64(*link.Number), 10)
	}
	if link.Flags != nil {
		props.set("flags", link.Flags.String())
	}
	return props
}

func groupAddressProperties(ga *etsimport.GroupAddressInfo) map[string]string {
	props := properties{"address": ga.Address}
	if strings.TrimSpace(ga.Name) != "" {
		props["name"] = ga.Name
	}
	props.set("datapoint_type", ga.DatapointType)
	props.set("main_name", ga.MainGroupName)
	props.set("main_description", ga.MainGroupDescription)
	props.set("main_comment", ga.MainGroupComment)
	props.set("middle_name", ga.MiddleGroupName)
	props.set("middle_description", ga.MiddleGroupDescription)
	props.set("middle_comment", ga.MiddleGroupComment)
	props.set("description", ga.Description)
	props.set("comment", ga.Comment)
	return props
}
