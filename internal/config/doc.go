// Package config provides configuration parsing for batchstore servers.
//
// The configuration is stored in batchstore.json next to the binary or in
// the directory passed to --config. Environment variables prefixed with
// BATCHSTORE_ override file values.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "loopSize": 1024,
//	    "shutdownTimeout": "10s"
//	  },
//	  "channels": {
//	    "slow":   {"kind": "throttle", "interval": "1s"},
//	    "search": {"kind": "debounce", "wait": "300ms", "maxWait": "2s"},
//	    "bulk":   {"kind": "budget", "window": "1m", "max": 10}
//	  },
//	  "snapshot": {
//	    "enabled": true,
//	    "bucket": "my-bucket",
//	    "prefix": "todos/",
//	    "region": "eu-west-1"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Environment
//
//	BATCHSTORE_SERVER_HOST, BATCHSTORE_SERVER_PORT
//	BATCHSTORE_SNAPSHOT_ENABLED, BATCHSTORE_SNAPSHOT_BUCKET,
//	BATCHSTORE_SNAPSHOT_PREFIX, BATCHSTORE_SNAPSHOT_REGION,
//	BATCHSTORE_SNAPSHOT_ENDPOINT
//	BATCHSTORE_LOG_LEVEL, BATCHSTORE_LOG_FORMAT
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	channels, err := cfg.Limiters(limiter.WithExecutor(l.Post))
package config
