// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - order.go: orders and order_items, the Order aggregate
//   - history.go: order_status_history read model
//   - catalog.go: read-only producers, products, customizations and printers
//   - outbox.go: outbox pattern model for event delivery
package models
