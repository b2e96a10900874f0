// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol represents a listed domestic stock.
// Code is the 6-digit KRX code and Market is KOSPI, KOSDAQ or KONEX.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:6;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Market    string    `gorm:"size:20;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
