package models

import (
	"time"
)

// GameStateID is the primary key of the singleton game_state row
const GameStateID = 1

// GameState is a singleton row holding the global lock flag. While locked,
// all allocation-changing operations are rejected; reads stay available.
type GameState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Locked    bool      `gorm:"default:false" json:"locked"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GameState model
func (GameState) TableName() string {
	return "game_state"
}
