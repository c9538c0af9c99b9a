// internal/domain/notice/entity.go
package notice

import "time"

// Notice is a store announcement shown on the notice board
type Notice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;size:255" json:"title"`
	Content   string    `gorm:"not null;type:text" json:"content"`
	Category  string    `gorm:"not null;size:50;index" json:"category"`
	Author    string    `gorm:"size:255" json:"author"`
	IsPinned  bool      `gorm:"not null;default:false;index" json:"is_pinned"`
	Views     int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notice) TableName() string { return "notices" }
