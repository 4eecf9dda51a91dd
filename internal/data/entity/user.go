package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleOwner    UserRole = "owner"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	BaseSimple
	Name  string   `db:"name"`
	Email string   `db:"email"`
	Role  UserRole `db:"role"`
}
