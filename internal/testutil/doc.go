// Package testutil contains helper builders used across tests to reduce
// boilerplate when scripting model replies and populations. These helpers
// are not intended for production usage.
package testutil
