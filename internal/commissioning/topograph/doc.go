// Package topograph derives visualization graphs from an imported ETS
// project.
//
// Two graphs are produced from one etsimport.Project:
//
//   - The topology graph nests devices in their line and lines in their
//     area through Node.ParentID. It has no edges.
//   - The group-address graph holds devices, their communication objects
//     and the group addresses. Objects sharing a group address are joined
//     by edges whose direction is inferred from the object flags.
//
// Both builders are pure functions and deterministic for a given project.
// Encode writes the graphs as JSON or CBOR.
package topograph
