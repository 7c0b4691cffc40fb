// Package config loads the bridge settings from a YAML file, then applies
// REMOBRIDGE_* environment overrides, fills defaults and validates the
// result.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	interval := cfg.DevicesInterval()
//
// An empty path skips the file and builds the config from defaults and
// the environment alone.
//
// The Nature Remo access token controls every appliance on the account.
// Supply it through REMOBRIDGE_TOKEN or a .env file rather than the YAML,
// or keep the file at 0600.
package config
