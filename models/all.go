package models

// All lists every server-side table, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&GuestUser{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
