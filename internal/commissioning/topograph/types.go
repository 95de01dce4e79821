package topograph

import "github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"

// NodeKind identifies what a node represents.
type NodeKind string

// Node kinds.
const (
	KindDevice       NodeKind = "device"
	KindGroupObject  NodeKind = "groupobject"
	KindGroupAddress NodeKind = "groupaddress"
	KindArea         NodeKind = "area"
	KindLine         NodeKind = "line"
)

// EdgeKind identifies the relation an edge represents.
type EdgeKind string

// Edge kinds. Only EdgeLinks is produced today.
const (
	EdgeLinks     EdgeKind = "links"
	EdgeTransmits EdgeKind = "transmits"
	EdgeReceives  EdgeKind = "receives"
)

// Edge directions, stored in the "direction" property and the label.
const (
	DirectionDirected   = "directed"
	DirectionUndirected = "undirected"
)

// Graph is a flat node/edge list.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one graph vertex. ParentID, when set, refers to a node that
// precedes this one in Graph.Nodes.
type Node struct {
	ID         string            `json:"id"`
	Kind       NodeKind          `json:"kind"`
	Label      string            `json:"label"`
	ParentID   string            `json:"parent_id,omitempty"`
	Properties map[string]string `json:"properties"`
}

// Edge is one graph edge between two node ids.
type Edge struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Kind       EdgeKind          `json:"kind"`
	Label      string            `json:"label,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// ProjectGraphs is the presentation aggregate of one import.
type ProjectGraphs struct {
	ProjectName       string                       `json:"project_name"`
	TopologyGraph     Graph                        `json:"topology_graph"`
	GroupAddressGraph Graph                        `json:"group_address_graph"`
	Devices           []etsimport.Device           `json:"devices"`
	GroupAddresses    []etsimport.GroupAddressInfo `json:"group_addresses"`
	Locations         []etsimport.BuildingSpace    `json:"locations"`
}

// BuildProjectGraphs derives both graphs and bundles them with the
// project's devices, group addresses and locations.
func BuildProjectGraphs(p *etsimport.Project) ProjectGraphs {
	return ProjectGraphs{
		ProjectName:       p.ProjectName,
		TopologyGraph:     BuildTopologyGraph(p),
		GroupAddressGraph: BuildGroupAddressGraph(p),
		Devices:           nonNil(p.Devices),
		GroupAddresses:    nonNil(p.GroupAddresses),
		Locations:         nonNil(p.Locations),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// properties collects node properties, dropping blank values.
type properties map[string]string

func (p properties) set(key, value string) {
	if value != "" {
		p[key] = value
	}
}
