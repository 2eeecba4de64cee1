// Package config provides configuration parsing for shadowdom tools.
//
// The configuration is stored in shadowdom.json. This package handles
// loading, saving, and validating it. Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "inspect": {
//	    "host": "localhost",
//	    "port": 7420,
//	    "sanitize": true,
//	    "allowOrigins": ["http://localhost:5173"]
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "shadowdom"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "shadowdom"
//	  },
//	  "snapshot": {
//	    "backend": "s3",
//	    "bucket": "my-snapshots",
//	    "prefix": "dev/",
//	    "region": "eu-west-1"
//	  },
//	  "strictRegistry": false
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.NewLogger(os.Stderr)
package config
