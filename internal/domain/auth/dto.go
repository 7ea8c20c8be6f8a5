// internal/domain/auth/dto.go
package auth

import (
	"bytes"
	"encoding/json"
)

// Envelope is the LMS backend response wrapper.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// HasData reports whether the envelope carries a non-null data payload.
func (e Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// LoginRequest is sent to POST /user/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginData is the data payload of a successful login.
type LoginData struct {
	Token string          `json:"token"`
	User  *ProfileResponse `json:"user,omitempty"`
}

// RegisterInput is the profile the user submits when signing up.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Program   string `json:"program,omitempty"`
}

// RegisterData is the data payload of a successful registration.
type RegisterData struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Token     string `json:"token,omitempty"`
}

// ProfileResponse is the user profile returned by /user/me and by login.
type ProfileResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      RoleField `json:"role"`
	IsActive  bool      `json:"is_active"`
	LastLogin string    `json:"last_login"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// RoleDetails is the role-specific record the backend attaches to a profile.
type RoleDetails struct {
	StudentID      string `json:"student_id,omitempty"`
	EnrollmentYear int    `json:"enrollment_year,omitempty"`
	Program        string `json:"program,omitempty"`
	Department     string `json:"department,omitempty"`
	Title          string `json:"title,omitempty"`
}

// RoleField accepts either a role name or a role-details object.
type RoleField struct {
	Name    Role
	Details *RoleDetails
}

func (r *RoleField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.Name = ParseRole(s)
		return nil
	}

	var details RoleDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return err
	}
	r.Details = &details
	switch {
	case details.StudentID != "" || details.Program != "" || details.EnrollmentYear != 0:
		r.Name = RoleStudent
	case details.Department != "" || details.Title != "":
		r.Name = RoleTeacher
	}
	return nil
}

func (r RoleField) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r.Name))
}
