package api

// Account is the client-facing view of an account. It never carries the
// password hash or the refresh token.
type Account struct {
	No                   int64   `json:"userNo"`
	Email                string  `json:"emlAddr"`
	Name                 string  `json:"userNm"`
	Role                 string  `json:"userRole"`
	ProfileImage         *string `json:"proflImg,omitempty"`
	Bio                  *string `json:"userBiogp,omitempty"`
	UseYn                string  `json:"useYn"`
	DelYn                string  `json:"delYn"`
	LastLoginAt          *string `json:"lastLgnDt,omitempty"`
	LastPasswordChangeAt *string `json:"lastPswdChgDt,omitempty"`
	CreatedAt            string  `json:"crtDt"`
	UpdatedAt            string  `json:"updtDt"`
}

type SignUpRequest struct {
	Email    string `json:"emlAddr"`
	Name     string `json:"userNm"`
	Password string `json:"password"`
	Role     string `json:"userRole,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"emlAddr"`
	Password string `json:"password"`
}

// SessionResponse answers SignUp and SignIn.
type SessionResponse struct {
	Account      *Account `json:"userInfo"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// GetSessionRequest is empty; the access token travels in metadata.
type GetSessionRequest struct{}

type AccountResponse struct {
	Account *Account `json:"userInfo"`
}

type ResetPasswordRequest struct {
	Email       string `json:"emlAddr"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest is authenticated by the access token in metadata.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
