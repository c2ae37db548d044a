// Package config provides configuration parsing for querybind.
//
// The configuration is stored in querybind.json (or querybind.toml) in the
// working directory. Every field is optional; missing values take defaults.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000,
//	    "shutdownTimeout": "10s"
//	  },
//	  "fetch": {
//	    "delay": "3s",
//	    "abortOnCancel": false,
//	    "queueSize": 256
//	  },
//	  "query": {
//	    "param": "search"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "querybind"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Address())
package config
