package models

import (
	"strings"

	"gorm.io/gorm"
)

const MasterCodePrefix = "CK-"

// ChecklistMaster is a reusable checklist template.
type ChecklistMaster struct {
	BaseModel
	Code            string          `gorm:"type:text;uniqueIndex;not null"                       json:"code"`
	Name            string          `gorm:"type:text;not null"                                   json:"name"`
	ChecklistTypeID int             `gorm:"type:int;not null;index"                              json:"checklistTypeId"`
	CreatedBy       *int            `gorm:"type:int;index"                                       json:"createdBy,omitempty"`
	Type            *ChecklistType  `gorm:"foreignKey:ChecklistTypeID"                           json:"type,omitempty"`
	Creator         *User           `gorm:"foreignKey:CreatedBy"                                 json:"creator,omitempty"`
	Items           []ChecklistItem `gorm:"foreignKey:ChecklistMasterID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// ChecklistItem is one ordered activity of a master. Position is unique among
// the live items of a master.
type ChecklistItem struct {
	BaseModel
	ChecklistMasterID int    `gorm:"type:int;not null;index" json:"checklistMasterId"`
	ActivityName      string `gorm:"type:text;not null"      json:"activityName"`
	IsRequired        bool   `gorm:"type:bool;not null"      json:"isRequired"`
	Position          int    `gorm:"type:int;not null"       json:"position"`
}

func (m *ChecklistMaster) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(m.Name) == "" || m.ChecklistTypeID == 0 {
		return gorm.ErrInvalidValue
	}
	return nil
}

func (i *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(i.ActivityName) == "" || i.Position < 1 {
		return gorm.ErrInvalidValue
	}
	return nil
}

// IsAvailable reports whether the master is loaded and not soft-deleted.
func (m *ChecklistMaster) IsAvailable() bool {
	return m != nil && m.ID != 0 && !m.DeletedAt.Valid
}
