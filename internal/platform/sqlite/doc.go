// Package sqlite implements the store interfaces on a device-resident
// sqlite database (modernc.org/sqlite, pure Go). The schema is managed by
// embedded goose migrations applied at open time.
package sqlite
