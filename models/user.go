package models

import "time"

// Registration channel codes recorded in the journal Dictionaries sheet.
const (
	ChannelWebForm  = "WF"
	ChannelTelegram = "TG"
	ChannelGoogle   = "GL"
	ChannelEmail    = "EM"
)

// User statuses recorded in the journal Dictionaries sheet.
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
	UserStatusDeleted = "deleted"
	UserStatusTest    = "test"
)

// User is one row of the Users journal sheet. UserID is a human-readable
// composite: U<YYYY_MM_DD>_<channel code>-<sequence>, e.g. U2025_11_26_WF-0001.
type User struct {
	UserID           string `json:"userId"`
	RegDate          string `json:"regDate,omitempty"`
	Channel          string `json:"channel,omitempty"`
	ChannelCode      string `json:"channelCode,omitempty"`
	DisplayName      string `json:"name"`
	Email            string `json:"email"`
	TelegramUsername string `json:"telegramUsername,omitempty"`
	TelegramChatID   string `json:"telegramChatId,omitempty"`
	Language         string `json:"language,omitempty"`
	Role             string `json:"role,omitempty"`
	Status           string `json:"status,omitempty"`
	Consent          bool   `json:"consent,omitempty"`
}

// NewUserData carries the fields needed to append a Users journal row.
type NewUserData struct {
	Email          string
	DisplayName    string
	ChannelCode    string
	ChannelName    string
	TelegramChatID string
	Language       string
	Role           string
	Status         string
	Consent        bool
	Source         string
	Comment        string
	RegDate        time.Time
}
