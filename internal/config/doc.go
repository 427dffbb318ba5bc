// Package config provides loading and environment overlay for streamhub's
// runtime configuration. It exposes a Default() baseline, a JSON file
// loader, an environment overlay, and the default data-directory lookup.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/streamhub.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/streamhub", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
