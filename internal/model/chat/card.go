package chat

// Card is the restaurant card block attached to assistant replies of
// KindCard. Read-only display data owned by exactly one message.
type Card struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Image         string     `json:"image"`
	Rating        float64    `json:"rating"`
	PriceLevel    string     `json:"price_level"`
	Distance      string     `json:"distance"`
	Description   string     `json:"description"`
	Cuisine       string     `json:"cuisine,omitempty"`
	PopularDishes []Dish     `json:"popular_dishes,omitempty"`
	Availability  []TimeSlot `json:"availability,omitempty"`
	Actions       []Action   `json:"actions,omitempty"`
}

// Dish is an entry of a card's popular-dish strip.
type Dish struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
}

// TimeSlot is one bookable slot; only available slots are ever rendered.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Action is a card button carrying an action token such as "book_12".
type Action struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}
