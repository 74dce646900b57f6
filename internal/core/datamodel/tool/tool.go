package tool

import "time"

// Tool is the persistence shape of an embedded external tool.
type Tool struct {
	ID              int64     `db:"id" gorm:"column:id;primaryKey"`
	Name            string    `db:"name" gorm:"column:name"`
	Description     string    `db:"description" gorm:"column:description"`
	URL             string    `db:"url" gorm:"column:url"`
	Icon            string    `db:"icon" gorm:"column:icon"`
	IconURL         string    `db:"icon_url" gorm:"column:icon_url"`
	Enabled         bool      `db:"enabled" gorm:"column:enabled;default:true"`
	Category        string    `db:"category" gorm:"column:category"`
	CreatedByUserID int64     `db:"created_by_user_id" gorm:"column:created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (Tool) TableName() string {
	return "tools"
}
