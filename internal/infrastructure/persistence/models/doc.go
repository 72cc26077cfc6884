// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain stays free of ORM
// tags. Each model has ToDomain/FromDomain converters; embedded lists are
// stored as JSONB text and decoded on read.
//
// Files:
//   - base.go: BaseModel and AggregateModel
//   - json.go: JSONB encode/decode helpers
//   - customer.go: customers (with the legacy processing/memo columns)
//   - activity.go: history, status and counseling logs
//   - settlement.go: settlement items
//   - identity.go: users and teams
//   - todo.go: todo items
package models
