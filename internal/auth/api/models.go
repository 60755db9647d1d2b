package api

// Request/response shapes are part of the external contract and must not
// drift: the front end matches on these field names.

type loginRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ForceLogin bool   `json:"forceLogin"`
}

type loginResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

type conflictResponse struct {
	Conflict bool   `json:"conflict"`
	Message  string `json:"message"`
}

type logoutResponse struct {
	Message string `json:"message"`
}

type verifyResponse struct {
	LoggedIn bool   `json:"loggedIn"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
