package db

import (
	"time"

	"gorm.io/datatypes"
)

// User is a profile. ID is supplied by the identity provider (or the email in
// seed data) and never generated here.
type User struct {
	ID    string `gorm:"primaryKey;size:128"`
	Email string `gorm:"size:255;index"`
	Name  string `gorm:"size:128"`
	Age   int

	Gender               string `gorm:"size:32;index"`
	Country              string `gorm:"size:128"`
	Region               string `gorm:"size:128"`
	City                 string `gorm:"size:128"`
	Religion             string `gorm:"size:64"`
	SexualOrientation    string `gorm:"size:64"`
	PoliticalOrientation string `gorm:"size:64"`
	RelationshipType     string `gorm:"size:64"`
	IsMonogamous         bool
	HasChildren          bool
	Description          string `gorm:"type:text"`

	// Photos keeps upload order; the first entry is the avatar.
	Photos datatypes.JSONSlice[string]

	Latitude  *float64
	Longitude *float64

	IsVerified      bool
	VerifiedAt      *time.Time
	IsSuperVerified bool
	SuperVerifiedAt *time.Time

	IsBanned bool `gorm:"index"`
	BannedAt *time.Time
	BannedBy string `gorm:"size:128"`

	IsAdmin   bool
	PushToken string `gorm:"size:512"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// FirstPhoto returns the avatar or "".
func (u *User) FirstPhoto() string {
	if len(u.Photos) == 0 {
		return ""
	}
	return u.Photos[0]
}

// Edge is a directed preference from one user to another.
//
// ID is pair.Ordered(FromUserID, ToUserID), so the primary key alone
// guarantees at most one row per ordered pair and per kind.
type Edge struct {
	ID         string    `gorm:"primaryKey;size:64"`
	FromUserID string    `gorm:"size:128;not null;index"`
	ToUserID   string    `gorm:"size:128;not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

type Like struct {
	Edge
}

type Dislike struct {
	Edge
}

// Match is the undirected relationship between UserA and UserB.
//
// ID is pair.Sorted(UserA, UserB) and UserA < UserB. HasMessages caches
// "at least one message exists" and only ever goes false → true.
type Match struct {
	ID            string `gorm:"primaryKey;size:64"`
	UserA         string `gorm:"size:128;not null;index"`
	UserB         string `gorm:"size:128;not null;index"`
	HasMessages   bool   `gorm:"not null;default:false"`
	LastMessage   string `gorm:"type:text"`
	LastMessageAt *time.Time
	// ForcedBy holds the admin id for admin-created matches.
	ForcedBy  string    `gorm:"size:128"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Users returns both participants.
func (m *Match) Users() [2]string {
	return [2]string{m.UserA, m.UserB}
}

// Has reports whether id participates in the match.
func (m *Match) Has(id string) bool {
	return id != "" && (m.UserA == id || m.UserB == id)
}

// Other returns the counterpart of id.
func (m *Match) Other(id string) string {
	if m.UserA == id {
		return m.UserB
	}
	return m.UserA
}

type Message struct {
	ID        string    `gorm:"primaryKey;size:36"`
	MatchID   string    `gorm:"size:64;not null;index"`
	SenderID  string    `gorm:"size:128;not null;index"`
	Content   string    `gorm:"type:text"`
	Read      bool      `gorm:"column:is_read;not null;default:false"`
	Deleted   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// Chat mirrors a Match plus its latest message for inbox listings.
// ID equals the match id.
type Chat struct {
	ID            string `gorm:"primaryKey;size:64"`
	UserA         string `gorm:"size:128;not null;index"`
	UserB         string `gorm:"size:128;not null;index"`
	LastMessage   string `gorm:"type:text"`
	LastSenderID  string `gorm:"size:128"`
	LastMessageAt *time.Time
	// UnreadCount counts messages not yet read by the user who did not send
	// the last one.
	UnreadCount int
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;index"`
}

// Report statuses.
const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

type Report struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ReporterID     string    `gorm:"size:128;not null;index"`
	ReportedUserID string    `gorm:"size:128;not null;index"`
	Reason         string    `gorm:"type:text"`
	Status         string    `gorm:"size:16;not null;index"`
	UpdatedBy      string    `gorm:"size:128"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// AdminLog is the audit trail of moderation actions.
type AdminLog struct {
	ID           string `gorm:"primaryKey;size:36"`
	AdminID      string `gorm:"size:128;not null;index"`
	Action       string `gorm:"size:64;not null"`
	TargetUserID string `gorm:"size:128;index"`
	Details      datatypes.JSONMap
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

// Notification is one entry of a user's in-app inbox.
type Notification struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:128;not null;index"`
	Kind      string `gorm:"size:32;not null"`
	Title     string `gorm:"size:255"`
	Body      string `gorm:"type:text"`
	Data      datatypes.JSONMap
	Read      bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// Models lists every table, in migration order.
func Models() []any {
	return []any{
		&User{}, &Like{}, &Dislike{}, &Match{}, &Message{},
		&Chat{}, &Report{}, &AdminLog{}, &Notification{},
	}
}
