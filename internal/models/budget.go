package models

import "gorm.io/gorm"

// Budget is the top-level container every other resource is scoped to.
// Access is granted to the owner and to the members.
type Budget struct {
	Base
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	OwnerID     string         `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Currency    string         `gorm:"size:3;not null" json:"currency"`

	Owner   *User  `gorm:"foreignKey:OwnerID" json:"-"`
	Members []User `gorm:"many2many:budget_members;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// MemberIDs returns the ids of the loaded members.
func (b *Budget) MemberIDs() []string {
	ids := make([]string, 0, len(b.Members))
	for _, m := range b.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
