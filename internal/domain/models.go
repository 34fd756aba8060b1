package domain

import (
	"time"
)

// User represents an account holder
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  string    `json:"displayName" db:"display_name"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Visit is a point-in-time snapshot of one observed client visit. Host,
// Brand, Country and Flag come from lookups made when the record was
// created and are never refreshed.
type Visit struct {
	ID        int64     `json:"ID" db:"id"`
	IP        string    `json:"IP" db:"ip"`
	IPDetails string    `json:"IPDetails" db:"ip_details"`
	Host      string    `json:"Host" db:"host"`
	Source    string    `json:"Source" db:"source"`
	Domain    string    `json:"Domain" db:"domain"`
	Brand     string    `json:"Brand" db:"brand"`
	Country   string    `json:"Country" db:"country"`
	Flag      string    `json:"flag" db:"flag"`
	ISP       string    `json:"ISP" db:"isp"`
	VPN       IntFlag   `json:"VPN" db:"vpn"`
	New       IntFlag   `json:"New" db:"is_new"`
	Archive   IntFlag   `json:"Archive" db:"archive"`
	Owner     string    `json:"owner" db:"owner"`
	Time      *Int64    `json:"Time,omitempty" db:"client_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Domain is a tracked domain/URL pair.
type Domain struct {
	ID        int64     `json:"ID" db:"id"`
	Domain    string    `json:"Domain" db:"domain"`
	URL       string    `json:"URL" db:"url"`
	Owner     string    `json:"Owner" db:"owner"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Country is the canonical result of a geo lookup.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
	Flag string `json:"flag"`
}

// Device is the result of a user-agent lookup.
type Device struct {
	Type  string `json:"type"`
	Brand string `json:"brand"`
}

// Subject is the identity carried by a verified token.
type Subject struct {
	UserID int64
	Email  string
	Role   Role
}

func (s Subject) IsAdmin() bool { return s.Role == RoleAdmin }
