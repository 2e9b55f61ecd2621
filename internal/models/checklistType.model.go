package models

type ChecklistType struct {
	BaseModel
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
}
