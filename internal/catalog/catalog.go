// Package catalog holds the immutable shoe and festival reference tables.
// They are loaded once at startup and injected into the router; nothing in
// this repository mutates them after construction.
package catalog

import (
	"time"

	"groovyfox-agent/internal/domain"
)

// Festival identifiers.
const (
	FestivalSofia    = 1
	FestivalAthens   = 2
	FestivalBelgrade = 3
)

// ShoeTypes lists every known shoe type in catalog order.
func ShoeTypes() []domain.ShoeType {
	return []domain.ShoeType{
		domain.ShoeTypeHeels,
		domain.ShoeTypeOxfords,
		domain.ShoeTypeTrainers,
		domain.ShoeTypeFlats,
	}
}

// Shoes returns the shoe model table.
func Shoes() []domain.ShoeModel {
	return []domain.ShoeModel{
		{
			ID:          1,
			Name:        "Classy Foxes",
			Colour:      "white",
			Type:        domain.ShoeTypeHeels,
			Price:       112,
			ImageURL:    "https://groovyfox.bg/wp-content/uploads/2018/10/Bride1.jpg",
			FestivalIDs: []int{FestivalSofia, FestivalAthens, FestivalBelgrade},
		},
		{
			ID:          2,
			Name:        "Furry Foxes",
			Colour:      "pink",
			Type:        domain.ShoeTypeHeels,
			Price:       114,
			ImageURL:    "https://groovyfox.bg/wp-content/uploads/2018/04/pink1-1.jpg",
			FestivalIDs: []int{FestivalSofia, FestivalAthens, FestivalBelgrade},
		},
		{
			ID:          3,
			Name:        "Sleek Foxes",
			Colour:      "brown",
			Type:        domain.ShoeTypeOxfords,
			Price:       118,
			ImageURL:    "https://groovyfox.bg/wp-content/uploads/2018/04/MBR02029-copy-wh.jpg",
			FestivalIDs: []int{FestivalSofia, FestivalAthens, FestivalBelgrade},
		},
		{
			ID:          4,
			Name:        "Sleek Foxes",
			Colour:      "red",
			Type:        domain.ShoeTypeOxfords,
			Price:       118,
			ImageURL:    "https://groovyfox.bg/wp-content/uploads/2018/04/MBR01978-wh.jpg",
			FestivalIDs: []int{FestivalSofia, FestivalAthens, FestivalBelgrade},
		},
		{
			ID:          5,
			Name:        "Casual Foxes",
			Colour:      "pink",
			Type:        domain.ShoeTypeTrainers,
			Price:       22,
			ImageURL:    "https://www.lindybop.co.uk/media/catalog/product/cache/1/image/9df78eab33525d08d6e5fb8d27136e95/s/n/sneaker-magenta-polka7_2_.jpg",
			FestivalIDs: []int{FestivalSofia},
		},
		{
			ID:          6,
			Name:        "Casual Foxes",
			Colour:      "blue",
			Type:        domain.ShoeTypeTrainers,
			Price:       22,
			ImageURL:    "https://www.lindybop.co.uk/media/catalog/product/cache/1/image/9df78eab33525d08d6e5fb8d27136e95/s/n/sneaker-cobalt-polka6_2_.jpg",
			FestivalIDs: []int{FestivalSofia},
		},
		{
			ID:          7,
			Name:        "Cute Foxes",
			Colour:      "red",
			Type:        domain.ShoeTypeFlats,
			Price:       20,
			ImageURL:    "https://www.lindybop.co.uk/media/catalog/product/cache/1/small_image/365x437/9df78eab33525d08d6e5fb8d27136e95/i/v/ivy-09-r.jpg",
			FestivalIDs: []int{FestivalSofia},
		},
		{
			ID:          8,
			Name:        "Cute Foxes",
			Colour:      "black",
			Type:        domain.ShoeTypeFlats,
			Price:       20,
			ImageURL:    "https://www.lindybop.co.uk/media/catalog/product/cache/1/small_image/365x437/9df78eab33525d08d6e5fb8d27136e95/i/v/ivy-09-b.jpg",
			FestivalIDs: []int{FestivalSofia},
		},
	}
}

// Festivals returns the festival location table. ModelIDs mirror the shoes'
// FestivalIDs.
func Festivals() []domain.FestivalLocation {
	return []domain.FestivalLocation{
		{
			ID:        FestivalSofia,
			City:      "Sofia",
			Name:      "Sofia",
			StartDate: date(2019, time.June, 1),
			EndDate:   date(2019, time.June, 3),
			ImageURL:  "https://groovyfox.bg/wp-content/uploads/2018/10/sofia.jpg",
			ModelIDs:  []int{1, 2, 3, 4, 5, 6, 7, 8},
		},
		{
			ID:        FestivalAthens,
			City:      "Athens",
			Name:      "Athens",
			StartDate: date(2019, time.June, 21),
			EndDate:   date(2019, time.June, 23),
			ImageURL:  "https://groovyfox.bg/wp-content/uploads/2018/10/athens.jpg",
			ModelIDs:  []int{1, 2, 3, 4},
		},
		{
			ID:        FestivalBelgrade,
			City:      "Belgrade",
			Name:      "Belgrade",
			StartDate: date(2019, time.July, 12),
			EndDate:   date(2019, time.July, 14),
			ImageURL:  "https://groovyfox.bg/wp-content/uploads/2018/10/belgrade.jpg",
			ModelIDs:  []int{1, 2, 3, 4},
		},
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
