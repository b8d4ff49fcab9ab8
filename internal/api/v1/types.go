package apiv1

type Pong struct {
	Ping string `json:"ping"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// VerifyRequest identifies the member the role is granted to.
type VerifyRequest struct {
	Email   string `json:"email" validate:"required,email,max=200"`
	GuildID string `json:"guild_id" validate:"required,numeric"`
	UserID  string `json:"user_id" validate:"required,numeric"`
}

type VerifyResponse struct {
	AttemptID         string `json:"attempt_id"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	State             string `json:"state,omitempty"`
	WindowsSearched   int    `json:"windows_searched"`
	MatchedResourceID string `json:"matched_resource_id,omitempty"`
}

type GetLedgerCheckParams struct {
	Email string `query:"email"`
}

type LedgerCheckResponse struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}
