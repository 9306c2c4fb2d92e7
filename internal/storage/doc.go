// Package storage is the persistence layer of the bot.
//
// It owns three entities:
//   - users: subscribed recipients and their delivery time
//   - quotes: the accepted quote corpus
//   - pending_quotes: recipient proposals awaiting a moderator decision
//
// All mutation goes through the Store interface; no other component touches
// the rows directly. Each operation is a single statement or transaction, so
// concurrent callers (the dispatch tick and inbound handlers) never observe
// torn state.
package storage
