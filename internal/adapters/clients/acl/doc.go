// Package acl is the anti-corruption layer between remote HTTP APIs and the
// quote domain.
//
// Each adapter embeds a shared remote, keeps the wire format in unexported
// structs, and translates payloads into [domain.Quote] values before anything
// outside this package sees them. Remote failures come back as domain errors:
//
//   - 404 wraps [domain.ErrNotFound]
//   - 400 and 422 become [domain.ErrValidation]
//   - 5xx, 429, auth failures and client errors ([clients.ErrCircuitOpen],
//     [clients.ErrMaxRetriesExceeded]) become [domain.ErrUnavailable]
//
// [QuotableSource] feeds the import use case from quotable.io. [CatalogClient]
// drives a running quote service and backs the quotectl CLI.
package acl
