package category

import "time"

// ToolCategory groups tools on the dashboard.
type ToolCategory struct {
	ID          int64     `db:"id" gorm:"column:id;primaryKey"`
	Name        string    `db:"name" gorm:"column:name;uniqueIndex"`
	Description string    `db:"description" gorm:"column:description"`
	Enabled     bool      `db:"enabled" gorm:"column:enabled;default:true"`
	Icon        string    `db:"icon" gorm:"column:icon"`
	IconURL     string    `db:"icon_url" gorm:"column:icon_url"`
	CreatedAt   time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (ToolCategory) TableName() string {
	return "categories"
}
