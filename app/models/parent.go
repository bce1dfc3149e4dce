package models

import "time"

// Parent represents a parent/guardian. A parent with a linked user account
// can log in to the parent portal and pay fees for their own children only.
type Parent struct {
	ID           string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	UserID       *string          `json:"user_id,omitempty" gorm:"index;type:uuid"`
	FirstName    string           `json:"first_name" gorm:"not null" validate:"required"`
	LastName     string           `json:"last_name" gorm:"not null" validate:"required"`
	Phone        *string          `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Email        *string          `json:"email,omitempty" gorm:"index"`
	Address      *string          `json:"address,omitempty" gorm:"type:text"`
	Relationship RelationshipType `json:"relationship,omitempty" gorm:"type:varchar(20)"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	User     *User      `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Students []*Student `json:"students,omitempty" gorm:"many2many:student_parents;"`
}
