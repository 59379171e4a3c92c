/*
Package logging forwards log/slog records from Tarmac WebAssembly functions
to the host runtime's logging capability.

Each record becomes one host call whose function is the host log level
(Error, Warn, Info, Debug or Trace) and whose payload is the message
followed by the record's attributes in key=value form.

	logger := logging.New(logging.Config{Level: slog.LevelDebug})
	logger.Info("query executed", slog.Int("rows", 3))
	// host receives: logging/Info "query executed rows=3"
*/
package logging
