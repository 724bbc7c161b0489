// Package logger provides structured logging setup and context carriage for
// the application. Loggers travel through context.Context so that store and
// service code logs with whatever request- or component-scoped attributes
// the caller attached.
package logger
