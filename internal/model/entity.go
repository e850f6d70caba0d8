package model

import (
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	CaseStatusNew        CaseStatus = "NEW"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusNeedsInfo  CaseStatus = "NEEDS_INFO"
	CaseStatusRejected   CaseStatus = "REJECTED"
	CaseStatusDone       CaseStatus = "DONE"
)

// AllStatuses lists every case status, in lifecycle order.
var AllStatuses = []CaseStatus{
	CaseStatusNew,
	CaseStatusInProgress,
	CaseStatusNeedsInfo,
	CaseStatusRejected,
	CaseStatusDone,
}

// ValidStatus reports whether s is one of the known case statuses.
func ValidStatus(s CaseStatus) bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Category struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	IsActive bool      `gorm:"index;not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Channel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	IsActive bool      `gorm:"index;not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Case is a tracked citizen inquiry. PublicID is the human-facing sequential
// number; ID is the stable internal identity. ResponsibleID is non-nil exactly
// when Status != NEW.
type Case struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PublicID int64     `gorm:"uniqueIndex;not null;default:nextval('cases_public_id_seq')" json:"public_id"`

	CategoryID  uuid.UUID `gorm:"type:uuid;index;not null" json:"category_id"`
	ChannelID   uuid.UUID `gorm:"type:uuid;index;not null" json:"channel_id"`
	Subcategory string    `gorm:"type:varchar(200)" json:"subcategory,omitempty"`

	ApplicantName  string `gorm:"type:varchar(200);not null" json:"applicant_name"`
	ApplicantPhone string `gorm:"type:varchar(50)" json:"applicant_phone,omitempty"`
	ApplicantEmail string `gorm:"type:varchar(100)" json:"applicant_email,omitempty"`
	Summary        string `gorm:"type:text;not null" json:"summary"`

	Status        CaseStatus `gorm:"type:varchar(32);index;not null;default:'NEW'" json:"status"`
	AuthorID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"author_id"`
	ResponsibleID *uuid.UUID `gorm:"type:uuid;index" json:"responsible_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Channel     *Channel  `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Responsible *User     `gorm:"foreignKey:ResponsibleID" json:"responsible,omitempty"`
}

// StatusHistory is the append-only audit log of status changes. OldStatus is
// nil only for the row written at case creation. Comment is set for explicit
// status changes and empty for creation/take/assign rows.
type StatusHistory struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CaseID      uuid.UUID   `gorm:"type:uuid;index;not null" json:"case_id"`
	OldStatus   *CaseStatus `gorm:"type:varchar(32)" json:"old_status,omitempty"`
	NewStatus   CaseStatus  `gorm:"type:varchar(32);not null" json:"new_status"`
	ChangedByID uuid.UUID   `gorm:"type:uuid;index;not null" json:"changed_by_id"`
	Comment     string      `gorm:"type:text" json:"comment,omitempty"`
	ChangedAt   time.Time   `gorm:"autoCreateTime" json:"changed_at"`

	ChangedBy *User `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}

func (StatusHistory) TableName() string { return "status_history" }

type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CaseID     uuid.UUID `gorm:"type:uuid;index;not null" json:"case_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;index;not null" json:"author_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	IsInternal bool      `gorm:"not null;default:false" json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
