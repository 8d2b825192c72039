package specification

import "gorm.io/gorm"

// ByContent matches an instruction by exact prompt text.
type ByContent struct {
	Content string
}

func (s ByContent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content = ?", s.Content)
}

type IsDefault struct{}

func (s IsDefault) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_default = ?", true)
}

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}
