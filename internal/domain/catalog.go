package domain

import "time"

// ShoeType is the enumerated category a shoe model belongs to.
type ShoeType string

const (
	ShoeTypeHeels    ShoeType = "heels"
	ShoeTypeOxfords  ShoeType = "oxfords"
	ShoeTypeTrainers ShoeType = "trainers"
	ShoeTypeFlats    ShoeType = "flats"
)

// ShoeModel is one entry in the immutable shoe catalog.
type ShoeModel struct {
	ID          int
	Name        string
	Colour      string
	Type        ShoeType
	Price       int
	ImageURL    string
	FestivalIDs []int
}

// FestivalLocation is one entry in the immutable festival catalog.
// StartDate and EndDate bound the festival, StartDate <= EndDate.
type FestivalLocation struct {
	ID        int
	City      string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	ImageURL  string
	ModelIDs  []int
}
