package models

import (
	"checklist/internal/utils"

	"gorm.io/gorm"
)

const (
	SystemEmployeeID = "SYSTEM"
	SystemUserName   = "System User"
)

// User is the local copy of an employee directory identity.
type User struct {
	BaseModel
	EmployeeID    string `gorm:"type:text;uniqueIndex;not null" json:"employeeId"`
	Name          string `gorm:"type:text;not null"             json:"name"`
	Email         string `gorm:"type:text"                      json:"email"`
	IsPlaceholder bool   `gorm:"type:bool;default:false"        json:"isPlaceholder"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.EmployeeID = utils.CleanEmployeeID(u.EmployeeID)
	if u.EmployeeID == "" {
		return gorm.ErrInvalidValue
	}

	if u.Name == "" {
		u.Name = PlaceholderName(u.EmployeeID)
	}
	if u.Email == "" {
		u.Email = PlaceholderEmail(u.EmployeeID)
	}
	return nil
}

// SystemUser is the synthetic actor used when no real identity can be attributed.
// It is never persisted.
func SystemUser() *User {
	return &User{EmployeeID: SystemEmployeeID, Name: SystemUserName}
}

// IsSystem reports whether u is the synthetic system actor.
func (u *User) IsSystem() bool {
	return u != nil && u.ID == 0 && u.EmployeeID == SystemEmployeeID
}

func PlaceholderName(employeeID string) string {
	return "User " + employeeID
}

func PlaceholderEmail(employeeID string) string {
	return employeeID + "@internal.com"
}

// NewPlaceholderUser builds the minimal identity stored when the directory
// cannot describe an employee.
func NewPlaceholderUser(employeeID string) *User {
	employeeID = utils.CleanEmployeeID(employeeID)
	return &User{
		EmployeeID:    employeeID,
		Name:          PlaceholderName(employeeID),
		Email:         PlaceholderEmail(employeeID),
		IsPlaceholder: true,
	}
}
