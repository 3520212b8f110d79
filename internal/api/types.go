package api

// Profile is the authenticated user profile. TotalItems drives feed
// pagination.
type Profile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TotalItems  int    `json:"total_items"`
	CreatedTime int64  `json:"created_time"`
}

// LoginResponse is the token envelope returned by the login endpoint.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Upload is one binary image payload submitted with a note.
type Upload struct {
	Filename  string
	MediaType string
	Data      []byte
}
