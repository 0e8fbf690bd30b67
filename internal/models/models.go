// Package models defines the persisted entities and their public projections.
package models

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Novel{},
		&Chapter{},
		&PaymentProfile{},
	}
}
