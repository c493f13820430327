package rest

// registerRequest is the request body for user registration.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the request body for user login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// createRoomRequest is the request body for creating a room.
type createRoomRequest struct {
	Name string `json:"name"`
}

// usernameResponse is the body of a user lookup.
type usernameResponse struct {
	Username string `json:"username"`
}

// errorResponse represents an API error response.
type errorResponse struct {
	Error string `json:"error"`
}
