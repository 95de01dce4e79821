// Package mqtt announces import runs on an MQTT broker using
// eclipse/paho.mqtt.golang.
//
// Topics live under a configurable prefix (default "knxgraph"):
//
//	knxgraph/status                      retained online/offline state
//	knxgraph/import/{run_id}/succeeded   outcome of one import
//	knxgraph/import/{run_id}/failed
//	knxgraph/import/latest               retained copy of the latest outcome
//
// The client registers a last-will message so subscribers see an
// offline status when the process dies mid-import.
package mqtt
