// Package common provides shared plumbing for tool invocations regardless
// of the transport they arrive on. It carries the caller and transport in
// the context and wraps each call with instrumentation.
package common
