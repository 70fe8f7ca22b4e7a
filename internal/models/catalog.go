package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Instructor is a teacher profile shown on the public site.
type Instructor struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"size:120;not null" json:"name" validate:"required,max=120"`
	Slug        string         `gorm:"size:140;index" json:"slug"`
	Bio         string         `gorm:"type:text" json:"bio"`
	PhotoURL    string         `gorm:"size:500" json:"photo_url"`
	Specialties datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"specialties"`
	Active      bool           `gorm:"default:true" json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ImportedAt  *time.Time     `json:"imported_at,omitempty"`
}

// BlogPost is a published article. Slug must be unique across all posts;
// the blog service disambiguates collisions before writing, the store does
// not enforce it.
type BlogPost struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Slug          string     `gorm:"size:220;index" json:"slug"`
	Body          string     `gorm:"type:text" json:"body"`
	Excerpt       string     `gorm:"size:500" json:"excerpt"`
	CoverImageURL string     `gorm:"size:500" json:"cover_image_url"`
	AuthorName    string     `gorm:"size:120" json:"author_name"`
	Published     bool       `gorm:"default:false" json:"published"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ImportedAt    *time.Time `json:"imported_at,omitempty"`
}

// Product is a shop item.
type Product struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"size:200;not null" json:"name" validate:"required,max=200"`
	Description string     `gorm:"type:text" json:"description"`
	PriceCents  int64      `gorm:"not null;default:0" json:"price_cents" validate:"gte=0"`
	Currency    string     `gorm:"size:3;default:'EUR'" json:"currency" validate:"omitempty,len=3"`
	ImageURL    string     `gorm:"size:500" json:"image_url"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Stock       int        `gorm:"default:0" json:"stock"`
	Active      bool       `gorm:"default:true" json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ImportedAt  *time.Time `json:"imported_at,omitempty"`
}

// Category groups products in the shop.
type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"size:120;not null" json:"name" validate:"required,max=120"`
	Slug        string     `gorm:"size:140;index" json:"slug"`
	Description string     `gorm:"size:500" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ImportedAt  *time.Time `json:"imported_at,omitempty"`
}

// Order is a shop order placed through the site. Items is the ordered line
// items as flat JSON; no inventory or payment logic lives here.
type Order struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerName    string         `gorm:"size:120;not null" json:"customer_name" validate:"required,max=120"`
	Email           string         `gorm:"size:255;not null" json:"email" validate:"required,email"`
	Items           datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"items"`
	TotalCents      int64          `gorm:"default:0" json:"total_cents" validate:"gte=0"`
	Status          string         `gorm:"size:30;default:'pending';index" json:"status"`
	ShippingAddress string         `gorm:"size:500" json:"shipping_address"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ImportedAt      *time.Time     `json:"imported_at,omitempty"`
}

// GalleryItem is a photo in the public gallery. StoragePath is the object
// key in the image bucket; deleting the item is expected to delete the
// object too, which is the handler's job, not the store's.
type GalleryItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string     `gorm:"size:200" json:"title"`
	Caption     string     `gorm:"size:500" json:"caption"`
	ImageURL    string     `gorm:"size:500;not null" json:"image_url" validate:"required,max=500"`
	StoragePath string     `gorm:"size:500" json:"storage_path"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ImportedAt  *time.Time `json:"imported_at,omitempty"`
}

// Review is a visitor review. Submissions land unapproved and only show on
// the public site once a moderator approves them.
type Review struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuthorName string     `gorm:"size:120;not null" json:"author_name" validate:"required,max=120"`
	Rating     int        `gorm:"not null;default:5" json:"rating" validate:"min=1,max=5"`
	Body       string     `gorm:"type:text" json:"body"`
	Approved   bool       `gorm:"default:false;index" json:"approved"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ImportedAt *time.Time `json:"imported_at,omitempty"`
}
