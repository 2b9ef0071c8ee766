package model

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims are JWT claims carrying the respondent's identity between
// requests. They are not an authorization grant.
type IdentityClaims struct {
	ClientID   string `json:"clientId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ChurchName string `json:"churchName"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the identity threaded through the core
func (c *IdentityClaims) Identity() Identity {
	return Identity{
		ClientID: c.ClientID,
		User: UserInfo{
			Name:       c.Name,
			Email:      c.Email,
			ChurchName: c.ChurchName,
		},
	}
}

// StartRequest is the request body for starting an assessment
type StartRequest struct {
	UserInfo
	ClientID string `json:"clientId,omitempty"` // reuse the device's cache namespace
}

// StartResponse is returned after starting an assessment
type StartResponse struct {
	Token    string       `json:"token"`
	ClientID string       `json:"clientId"`
	View     *SessionView `json:"view"`
}
