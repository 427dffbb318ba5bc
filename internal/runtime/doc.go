// Package runtime wires storage, config, and ID generation into a
// single-node streamhub instance. It exposes Open/Close, a basic health
// check, and accessors used by the subscription, blacklist, and toggle
// stores to share one underlying database.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
package runtime
