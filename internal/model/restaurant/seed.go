package restaurant

import "github.com/dinedesk/backend/internal/model/chat"

// Seed provides the default New York catalog served when no database is
// configured.
func Seed() []Restaurant {
	return []Restaurant{
		{
			ID:          "1",
			Name:        "Bella Italia",
			Cuisine:     "italian",
			Rating:      4.6,
			PriceLevel:  "$$",
			Distance:    "0.4 miles",
			Description: "Family-run trattoria with handmade pasta and a wood-fired oven.",
			DineIn:      true,
			Active:      true,
			PopularDishes: []chat.Dish{
				{Name: "Tagliatelle al Ragù", Price: "$18.50"},
				{Name: "Margherita Pizza", Price: "$14.00"},
				{Name: "Tiramisu", Price: "$8.00"},
			},
		},
		{
			ID:          "2",
			Name:        "Golden Dragon",
			Cuisine:     "chinese",
			Rating:      4.3,
			PriceLevel:  "$$",
			Distance:    "0.8 miles",
			Description: "Cantonese classics and dim sum served until late.",
			DineIn:      true,
			Active:      true,
			PopularDishes: []chat.Dish{
				{Name: "Char Siu Bao", Price: "$7.50"},
				{Name: "Kung Pao Chicken", Price: "$15.00"},
			},
		},
		{
			ID:          "3",
			Name:        "El Mariachi",
			Cuisine:     "mexican",
			Rating:      4.1,
			PriceLevel:  "$",
			Distance:    "1.2 miles",
			Description: "Street-style tacos and an agave-heavy drinks list.",
			DineIn:      false,
			Active:      true,
			PopularDishes: []chat.Dish{
				{Name: "Al Pastor Tacos", Price: "$11.00"},
				{Name: "Elote", Price: "$6.00"},
			},
		},
		{
			ID:          "4",
			Name:        "Sakura House",
			Cuisine:     "japanese",
			Rating:      4.8,
			PriceLevel:  "$$$",
			Distance:    "1.5 miles",
			Description: "Omakase counter and a quiet tatami room, reservations recommended.",
			DineIn:      true,
			Active:      true,
			PopularDishes: []chat.Dish{
				{Name: "Chef's Nigiri Set", Price: "$42.00"},
				{Name: "Miso Black Cod", Price: "$26.00"},
			},
		},
		{
			ID:          "5",
			Name:        "Spice Route",
			Cuisine:     "indian",
			Rating:      4.4,
			PriceLevel:  "$$",
			Distance:    "2.0 miles",
			Description: "North Indian tandoor dishes with house-ground spice blends.",
			DineIn:      true,
			Active:      true,
			PopularDishes: []chat.Dish{
				{Name: "Butter Chicken", Price: "$17.00"},
				{Name: "Garlic Naan", Price: "$4.50"},
			},
		},
		{
			ID:          "6",
			Name:        "Liberty Diner",
			Cuisine:     "american",
			Rating:      3.9,
			PriceLevel:  "$",
			Distance:    "0.3 miles",
			Description: "Classic diner plates around the clock.",
			DineIn:      true,
			Active:      true,
			PopularDishes: []chat.Dish{
				{Name: "Smash Burger", Price: "$12.00"},
				{Name: "Buttermilk Pancakes", Price: "$9.00"},
			},
		},
	}
}
