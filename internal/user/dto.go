package user

// UpdateProfileDTO carries a self-service profile edit. Empty password means
// "leave unchanged".
type UpdateProfileDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

// UpdateRoleDTO carries an admin role change.
type UpdateRoleDTO struct {
	Role string `json:"role"`
}

// AssignToolsDTO replaces a user's assignment set wholesale.
type AssignToolsDTO struct {
	ToolIDs []int64 `json:"tool_ids"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d UpdateProfileDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password != "" && len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	return nil
}
