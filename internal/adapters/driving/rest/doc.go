// Package rest is the HTTP front door of the deployment service. It
// admits build requests, answers health checks and offers a local
// evaluation sink for testing, translating between the wire format and
// the core's driving port.
package rest
