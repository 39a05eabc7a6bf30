package restaurant

import "github.com/dinedesk/backend/internal/model/chat"

// Restaurant is the catalog record behind the assistant's card replies.
type Restaurant struct {
	ID            string
	Name          string
	Cuisine       string
	Image         string
	Rating        float64
	PriceLevel    string
	Distance      string
	Description   string
	DineIn        bool
	Active        bool
	PopularDishes []chat.Dish
	Availability  []chat.TimeSlot
}

// defaultSlots stands in when a restaurant has no stored availability, so
// card replies always carry something bookable.
var defaultSlots = []chat.TimeSlot{
	{Time: "6:00 PM", Available: true},
	{Time: "6:30 PM", Available: false},
	{Time: "7:00 PM", Available: true},
	{Time: "7:30 PM", Available: true},
	{Time: "8:00 PM", Available: false},
	{Time: "8:30 PM", Available: true},
}

// Card converts the catalog record into the wire-format card attached to
// assistant replies.
func (r Restaurant) Card() chat.Card {
	slots := r.Availability
	if len(slots) == 0 {
		slots = defaultSlots
	}

	return chat.Card{
		ID:            "rest_" + r.ID,
		Name:          r.Name,
		Image:         r.Image,
		Rating:        r.Rating,
		PriceLevel:    r.PriceLevel,
		Distance:      r.Distance,
		Description:   r.Description,
		Cuisine:       r.Cuisine,
		PopularDishes: r.PopularDishes,
		Availability:  slots,
		Actions: []chat.Action{
			{Text: "Book Table", Action: "book_" + r.ID},
			{Text: "View Menu", Action: "menu_" + r.ID},
			{Text: "Get Directions", Action: "directions_" + r.ID},
		},
	}
}
