package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries the bearer token. Trusted reports whether the
// operator's role may request unredacted output.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Role        string `json:"role"`
	Trusted     bool   `json:"trusted"`
}
