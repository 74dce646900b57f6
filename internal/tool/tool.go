package tool

import (
	"time"

	toolDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/tool"
)

// Tool is the domain shape of an embedded external tool.
type Tool struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	Icon            string    `json:"icon"`
	IconURL         string    `json:"icon_url,omitempty"`
	Enabled         bool      `json:"enabled"`
	Category        string    `json:"category"`
	CreatedByUserID int64     `json:"created_by_user_id"`
	CreatedByUser   string    `json:"created_by_user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FromDataModel(row *toolDatamodel.Tool) *Tool {
	return &Tool{
		ID:              row.ID,
		Name:            row.Name,
		Description:     row.Description,
		URL:             row.URL,
		Icon:            row.Icon,
		IconURL:         row.IconURL,
		Enabled:         row.Enabled,
		Category:        row.Category,
		CreatedByUserID: row.CreatedByUserID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func ToDataModel(t *Tool) *toolDatamodel.Tool {
	return &toolDatamodel.Tool{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		URL:             t.URL,
		Icon:            t.Icon,
		IconURL:         t.IconURL,
		Enabled:         t.Enabled,
		Category:        t.Category,
		CreatedByUserID: t.CreatedByUserID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
