package models

import "time"

// Work is a portfolio entry.
type Work struct {
	ID               string      `json:"id" gorm:"primaryKey;type:uuid"`
	Slug             string      `json:"slug" gorm:"uniqueIndex;not null"`
	Title            string      `json:"title" gorm:"not null"`
	Category         string      `json:"category" gorm:"not null"`
	ShortDescription string      `json:"short_description"`
	Year             int         `json:"year,omitempty"`
	Role             string      `json:"role,omitempty"`
	Tools            []string    `json:"tools" gorm:"serializer:json"`
	Tags             []string    `json:"tags" gorm:"serializer:json"`
	Highlights       []string    `json:"highlights" gorm:"serializer:json"`
	Outcome          string      `json:"outcome,omitempty"`
	CTA              string      `json:"cta,omitempty" gorm:"column:cta"`
	IsActive         bool        `json:"is_active" gorm:"default:true"`
	SortOrder        int         `json:"sort_order" gorm:"default:100"`
	Media            []WorkMedia `json:"media" gorm:"foreignKey:WorkID"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type WorkMedia struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	WorkID    string    `json:"work_id" gorm:"type:uuid;not null;index"`
	Kind      string    `json:"kind" gorm:"type:varchar(16);not null"` // hero | gallery
	Path      string    `json:"path" gorm:"not null"`
	Alt       string    `json:"alt,omitempty"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (WorkMedia) TableName() string { return "work_media" }

// StudioService is an offering listed on the services page.
type StudioService struct {
	ID           string       `json:"id" gorm:"primaryKey;type:uuid"`
	Slug         string       `json:"slug" gorm:"uniqueIndex;not null"`
	Title        string       `json:"title" gorm:"not null"`
	ValueProp    string       `json:"value_prop"`
	Deliverables []string     `json:"deliverables" gorm:"serializer:json"`
	ProcessSteps []string     `json:"process_steps" gorm:"serializer:json"`
	Timeline     string       `json:"timeline,omitempty"`
	FAQ          []ServiceFAQ `json:"faq" gorm:"column:faq;serializer:json"`
	IsActive     bool         `json:"is_active" gorm:"default:true"`
	SortOrder    int          `json:"sort_order" gorm:"default:100"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (StudioService) TableName() string { return "services" }

type ServiceFAQ struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// ContactMessage is an inbound enquiry from the contact form.
type ContactMessage struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      *string   `json:"user_id,omitempty"`
	Name        string    `json:"name" gorm:"not null"`
	Email       string    `json:"email" gorm:"not null"`
	ProjectType string    `json:"project_type"`
	Budget      string    `json:"budget"`
	Message     string    `json:"message" gorm:"type:text;not null"`
	Source      string    `json:"source" gorm:"not null;default:'website'"`
	Status      string    `json:"status" gorm:"not null;default:'new'"`
	IP          string    `json:"ip,omitempty" gorm:"column:ip"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
