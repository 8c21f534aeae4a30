// Package api converts queue and photo records into the transport-friendly
// payloads the CLI renders.
package api
