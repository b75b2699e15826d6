package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
)

func ToRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleAdmin, RoleDelivery:
		return r, true
	}
	return "", false
}

type User struct {
	ID        uint64
	Name      string
	Phone     string
	Role      Role
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
