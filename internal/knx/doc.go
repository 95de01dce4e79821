// Package knx provides KNX addressing primitives shared by the ETS importer
// and the graph builder.
//
// # Group Addresses
//
// A group address is a 16-bit value. ETS projects store it as a decimal
// number and leave the rendering to the tool:
//
//	knx.FormatGroupAddress(2305, knx.StyleThreeLevel) // "1/1/1"
//	knx.FormatGroupAddress(2305, knx.StyleTwoLevel)   // "1/257"
//	knx.FormatGroupAddress(2305, knx.StyleFree)       // "2305"
//
// # Individual Addresses
//
// Device addresses are assembled from the enclosing Area and Line plus the
// device's own number. FormatIndividualAddress produces a placeholder when
// any part is missing so no device is dropped.
package knx
