// Package influxdb writes X10 device state history to InfluxDB v2.
//
// Two measurements are written:
//
//	x10_device_state  tags: device, house        fields: on (bool)
//	x10_house_event   tags: house, command       fields: count
//
// Writes are batched and non-blocking. When InfluxDB is unreachable the
// bridge keeps running; write errors are reported via SetOnError.
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceState("C2", true)
package influxdb
