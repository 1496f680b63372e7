package models

import (
	"strings"
	"time"
)

// Course groups categories for cross-selling
type Course string

const (
	CourseMain    Course = "main"
	CourseSide    Course = "side"
	CourseDrink   Course = "drink"
	CourseDessert Course = "dessert"
	CourseOther   Course = "other"
)

type Category struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Course    Course    `json:"course" gorm:"not null;default:'other'"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuItem struct {
	ID          string                `json:"id" gorm:"primaryKey"`
	Name        string                `json:"name" gorm:"not null;index"`
	Description string                `json:"description"`
	Price       Money                 `json:"price" gorm:"not null"`
	CategoryID  string                `json:"category_id" gorm:"not null;index"`
	IsAvailable bool                  `json:"is_available" gorm:"not null"`
	Tags        []string              `json:"tags" gorm:"serializer:json"` // dietary tags, e.g. "vegan"
	Options     []CustomizationOption `json:"options,omitempty" gorm:"foreignKey:MenuItemID"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// HasTag reports whether the item carries a dietary tag
func (m *MenuItem) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Option returns the customization option with the given name
func (m *MenuItem) Option(name string) (*CustomizationOption, bool) {
	for i := range m.Options {
		if m.Options[i].Name == name {
			return &m.Options[i], true
		}
	}
	return nil, false
}

type CustomizationOption struct {
	ID         uint     `json:"-" gorm:"primaryKey"`
	MenuItemID string   `json:"-" gorm:"not null;index"`
	Name       string   `json:"name" gorm:"not null"`
	Choices    []string `json:"choices" gorm:"serializer:json"`
	Required   bool     `json:"required"`
	SortOrder  int      `json:"-"`
}

// Match returns the canonical choice for a free-text answer
func (o *CustomizationOption) Match(answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	for _, c := range o.Choices {
		if strings.EqualFold(c, answer) {
			return c, true
		}
	}
	return "", false
}
