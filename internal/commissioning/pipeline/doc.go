// Package pipeline runs a complete project import: upload validation,
// parsing, graph derivation and the optional side effects of recording
// the run in the history database, announcing it over MQTT and writing
// metrics to InfluxDB.
//
// Side effects never change the outcome of an import. A failing sink is
// logged and the import result is still returned.
package pipeline
