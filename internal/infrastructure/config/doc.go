// Package config loads knxgraph configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// environment variables named KNXGRAPH_SECTION_KEY (for example
// KNXGRAPH_DATABASE_PATH or KNXGRAPH_MQTT_PASSWORD). Secrets such as the
// MQTT password and InfluxDB token are best supplied through the
// environment.
//
//	cfg, err := config.Load("configs/knxgraph.yaml")
//	if err != nil {
//	    return err
//	}
package config
