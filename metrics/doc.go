/*
Package metrics reports database engine activity to the metrics capability
of the Tarmac host runtime.

A Recorder keeps a gauge of open handles and, per operation, a counter of
calls, a counter of failures and a histogram of durations in seconds:

	<prefix>_open_handles
	<prefix>_<op>_total
	<prefix>_<op>_errors_total
	<prefix>_<op>_duration_seconds

Emission is best-effort: marshal or host-call failures are swallowed so
metrics never change the outcome of a database call.
*/
package metrics
