package course

import "gorm.io/gorm"

// Course status enum values
const (
	CourseDraft     = "DRAFT"
	CoursePublished = "ACTIVE"
	CourseInactive  = "INACTIVE"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Author          string  `json:"author"`
	Price           float64 `json:"price" gorm:"default:0"`
	PaypalProductID string  `json:"paypal_product_id" gorm:"type:varchar(64)"` // Catalog product id at the payment provider
	Status          string  `json:"status" gorm:"default:'DRAFT'"`             // DRAFT, ACTIVE, INACTIVE
	ThumbnailURL    string  `json:"thumbnail_url"`
	IsPublished     bool    `json:"is_published" gorm:"default:false"`
	IsDeleted       bool    `gorm:"default:false"`
}
