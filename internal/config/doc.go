// Package config loads livetree.json.
//
// Every field is optional; missing values take the defaults from New.
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "readTimeout": "10s",
//	    "writeTimeout": "10s",
//	    "pingInterval": "30s",
//	    "sendBuffer": 64
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text",
//	    "file": "livetree.log"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "livetree",
//	    "path": "/metrics"
//	  },
//	  "tracing": {
//	    "tracerName": "livetree"
//	  },
//	  "render": {
//	    "maxPasses": 16
//	  },
//	  "export": {
//	    "bucket": "my-site",
//	    "prefix": "pages/",
//	    "region": "eu-west-1",
//	    "endpoint": "http://localhost:9000",
//	    "pathStyle": true
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println("Listening on", cfg.Address())
package config
