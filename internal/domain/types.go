package domain

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Nutrient is one row of a food record's nutrient list. Amount is nil when
// the food database omits it for that nutrient.
type Nutrient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   string   `json:"unit"`
}

type NutritionEntry struct {
	ID        string     `json:"id"`
	FoodLabel string     `json:"foodLabel"`
	Nutrients []Nutrient `json:"nutrients"`
	ImageURL  string     `json:"imagePath"`
	SavedAt   time.Time  `json:"savedAt"`
}

type Message struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	ChatID    string    `json:"chatId"`
	Timestamp time.Time `json:"timestamp"`
}

type Chat struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
}

// Label is a vision-service tag for a photo. Confidence is in [0,1].
type Label struct {
	Description string  `json:"name"`
	Confidence  float64 `json:"confidence"`
}
