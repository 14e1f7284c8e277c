// Package config loads isopage application settings.
//
// Settings come from an optional isopage.yaml (or isopage.json) file and are
// then overridden by ISOPAGE_* environment variables:
//
//	cfg, err := config.Load("isopage.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Listen)
//
// Environment overrides use the field's env tag, e.g. ISOPAGE_DEBUG=true or
// ISOPAGE_CACHE_REDIS_ADDR=localhost:6379.
package config
