// Package mqtt provides the MQTT client used by the X10 bridge.
//
// It wraps github.com/eclipse/paho.mqtt.golang and adds:
//   - Availability on "<prefix>/bridge/status" ("online" retained on
//     connect, "offline" as Last Will and on graceful close)
//   - Subscription tracking and restoration after reconnect
//   - Panic recovery around message handlers
//   - Sentinel errors for use with errors.Is
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("home/x10/+/set", 1, func(topic string, payload []byte) error {
//	    return nil
//	})
//
// Tests that need a broker live behind the "integration" build tag.
package mqtt
