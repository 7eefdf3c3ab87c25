package jwt

import "github.com/golang-jwt/jwt/v5"

// SessionClaims identify the golfer and the club a device session acts for.
type SessionClaims struct {
	jwt.RegisteredClaims
	Club       string `json:"club"`
	GolfLinkNo string `json:"golf_link_no"`
	Role       string `json:"role"`
}

type Role string

const (
	RoleGolfer Role = "golfer"
	RoleMarker Role = "marker"
	RoleAdmin  Role = "admin"
)
