// Package school holds the records and contracts shared by the portal API:
// status checks persisted in the document store, notices read from the
// published spreadsheet, and the interfaces the HTTP layer depends on.
package school
