// Package store defines the persistence contracts for the device-resident
// durable tables: decks, cards, the pending review queue and the sync
// journal. Implementations must guarantee the transactional contract: a
// failed transaction leaves every participating table unchanged.
package store
