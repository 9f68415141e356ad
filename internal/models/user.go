package models

import "fmt"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"image"`
	Role  Role   `json:"role,omitempty"`
	Fraud bool   `json:"fraud,omitempty"`
}
