package auth

import "strings"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterDTO struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email"`
}

type ResetPasswordDTO struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RegisterDTO) Validate() error {
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	return nil
}

// Validate for refresh token DTO
func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}

func (d ForgotPasswordDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}

func (d ResetPasswordDTO) Validate() error {
	if d.Token == "" {
		return ValidationError{Msg: "token is required"}
	}
	if len(d.NewPassword) < 8 {
		return ValidationError{Msg: "new_password must be at least 8 characters"}
	}
	return nil
}

func (d ChangePasswordDTO) Validate() error {
	if d.OldPassword == "" {
		return ValidationError{Msg: "old_password is required"}
	}
	if len(d.NewPassword) < 8 {
		return ValidationError{Msg: "new_password must be at least 8 characters"}
	}
	return nil
}
