package models

import "time"

const (
	RoleFarmer  = "farmer"
	RoleAgrovet = "agrovet"
	RoleAdmin   = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	County    string    `json:"county"`
	SubCounty string    `json:"sub_county"`
	Role      string    `gorm:"type:VARCHAR(20);default:'farmer'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
