// Package config provides configuration parsing for reconcile servers.
//
// The configuration is stored in reconcile.json (or reconcile.yaml) in the
// working directory. This package handles loading, environment overrides,
// saving and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":8080",
//	    "title": "Counter",
//	    "maxSessions": 100,
//	    "readTimeout": "60s"
//	  },
//	  "log": {"level": "info", "format": "json"},
//	  "session": {"eventKinds": ["click", "input", "keydown"]},
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"enabled": false},
//	  "archive": {"backend": "s3", "bucket": "dispatches", "prefix": "prod/"}
//	}
//
// # Environment
//
// RECONCILE_ADDR, RECONCILE_LOG_LEVEL, RECONCILE_LOG_FORMAT and
// RECONCILE_S3_BUCKET override the file. Setting the bucket selects the s3
// archive backend.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
