// Package logging builds the bridge's log/slog logger from the logging
// section of the config file.
//
//	logging:
//	  level: info     # debug | info | warn | error
//	  format: json    # json | text
//	  output: stdout  # stdout | stderr
//
// Entries always carry service and version. Subsystems get a child logger
// via Component, which adds a component attribute:
//
//	log := logging.New(cfg.Logging, version)
//	log.Component("poller").Info("polling started", "devices_interval", "5m0s")
//
// Attributes named token, access_token, password or authorization are
// written as [REDACTED] whatever their value.
package logging
