// Package influxdb records import metrics in InfluxDB v2 using the
// official influxdb-client-go library.
//
// Each import run becomes one point of the knx_import measurement,
// tagged by status, group address style and error code, with the
// project counts and duration as fields:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.WriteImport(ctx, influxdb.ImportMetrics{RunID: id, Status: "succeeded", Devices: 42})
//
// Writes are blocking so a failed write is reported to the caller.
package influxdb
