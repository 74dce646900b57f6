package category

import (
	"time"

	categoryDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/category"
)

// FallbackCategoryName is where tools land when their category is deleted.
const FallbackCategoryName = "General"

// Category groups tools on the dashboard.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Icon        string    `json:"icon"`
	IconURL     string    `json:"icon_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(row *categoryDatamodel.ToolCategory) *Category {
	return &Category{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Enabled:     row.Enabled,
		Icon:        row.Icon,
		IconURL:     row.IconURL,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
