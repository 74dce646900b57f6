package tool

// ToolDTO carries a create or update request.
type ToolDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Icon        string `json:"icon"`
	IconURL     string `json:"icon_url"`
	Enabled     *bool  `json:"enabled"`
	Category    string `json:"category"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d ToolDTO) Validate() error {
	if d.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if d.URL == "" {
		return ValidationError{Msg: "url is required"}
	}
	return nil
}
