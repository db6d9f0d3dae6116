package model

import (
	"fmt"
	"strings"
)

// Role is a recipient's privilege level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Roles lists every assignable role in display order.
var Roles = []Role{RoleAdmin, RoleUser}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// ParseRole maps a raw token to a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(raw))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Recipient binds a nickname to exactly one chat.
type Recipient struct {
	Nickname string `gorm:"primaryKey"`
	ChatID   int64  `gorm:"uniqueIndex:idx_recipients_chat_id;not null"`
	Username *string
	Role     Role `gorm:"not null;default:'user';check:chk_recipients_role,role IN ('user','admin')"`
}

func (Recipient) TableName() string {
	return "recipients"
}

// IsAdmin reports whether the recipient may run admin commands.
func (r Recipient) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// DisplayUsername returns the chat display name or an empty string.
func (r Recipient) DisplayUsername() string {
	if r.Username == nil {
		return ""
	}
	return *r.Username
}
