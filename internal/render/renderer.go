// Package render turns message records into the HTML fragments the chat
// widget paints. All user-supplied text is escaped; the widget injects the
// fragments verbatim.
package render

import (
	"fmt"
	"html"
	"strings"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
)

const timeLayout = "3:04 PM"

// Message renders one conversation turn. The output for a given message is
// stable: rendering twice yields byte-identical markup, which is what makes
// the streamed reveal safe to swap for the direct render.
func Message(m chatmodel.Message) string {
	if m.Role == chatmodel.RoleUser {
		return userBubble(m)
	}
	return assistantBlock(m)
}

// Stars renders the 5-glyph rating strip. Floor semantics: 3.7 fills 3.
func Stars(rating float64) string {
	filled := int(rating)
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// RevealChunks splits a message body into the per-character chunks the
// reveal stream emits. Joining the chunks reproduces the body exactly.
func RevealChunks(content string) []string {
	runes := []rune(content)
	chunks := make([]string, 0, len(runes))
	for _, r := range runes {
		chunks = append(chunks, string(r))
	}
	return chunks
}

func userBubble(m chatmodel.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="message user-message" data-message-id="%s">`, html.EscapeString(m.ID))
	fmt.Fprintf(&b, `<div class="bubble">%s</div>`, html.EscapeString(m.Content))
	fmt.Fprintf(&b, `<time>%s</time>`, m.CreatedAt.Format(timeLayout))
	b.WriteString(`</div>`)
	return b.String()
}

func assistantBlock(m chatmodel.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="message bot-message" data-message-id="%s">`, html.EscapeString(m.ID))
	b.WriteString(`<span class="avatar"></span><div class="bubble">`)
	fmt.Fprintf(&b, `<div class="content">%s</div>`, html.EscapeString(m.Content))

	if m.Kind == chatmodel.KindCard {
		b.WriteString(`<div class="cards">`)
		for _, card := range m.Cards {
			b.WriteString(restaurantCard(card))
		}
		b.WriteString(`</div>`)
	}

	fmt.Fprintf(&b, `<time>%s</time>`, m.CreatedAt.Format(timeLayout))
	b.WriteString(`</div>`)

	if len(m.QuickReplies) > 0 {
		b.WriteString(quickReplyRow(m.QuickReplies))
	}

	b.WriteString(`</div>`)
	return b.String()
}

func restaurantCard(card chatmodel.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="restaurant-card" data-card-id="%s">`, html.EscapeString(card.ID))
	if card.Image != "" {
		fmt.Fprintf(&b, `<img src="%s" alt="%s">`, html.EscapeString(card.Image), html.EscapeString(card.Name))
	}
	fmt.Fprintf(&b, `<h4>%s</h4>`, html.EscapeString(card.Name))
	fmt.Fprintf(&b, `<div class="meta"><span class="rating-stars">%s</span> <span>%.1f</span> &bull; <span>%s</span> &bull; <span>%s</span></div>`,
		Stars(card.Rating), card.Rating, html.EscapeString(card.PriceLevel), html.EscapeString(card.Distance))
	if card.Description != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(card.Description))
	}

	if len(card.PopularDishes) > 0 {
		b.WriteString(`<div class="dishes">`)
		for _, dish := range card.PopularDishes {
			fmt.Fprintf(&b, `<span class="dish">%s <em>%s</em></span>`,
				html.EscapeString(dish.Name), html.EscapeString(dish.Price))
		}
		b.WriteString(`</div>`)
	}

	if slots := availableSlots(card.Availability); len(slots) > 0 {
		b.WriteString(`<div class="availability">`)
		for _, slot := range slots {
			fmt.Fprintf(&b, `<span class="slot">%s</span>`, html.EscapeString(slot.Time))
		}
		b.WriteString(`</div>`)
	}

	if len(card.Actions) > 0 {
		b.WriteString(`<div class="actions">`)
		for _, action := range card.Actions {
			fmt.Fprintf(&b, `<button class="action-btn" data-action="%s">%s</button>`,
				html.EscapeString(action.Action), html.EscapeString(action.Text))
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}

func quickReplyRow(replies []chatmodel.QuickReply) string {
	var b strings.Builder
	b.WriteString(`<div class="quick-replies">`)
	for _, reply := range replies {
		fmt.Fprintf(&b, `<button class="quick-reply-btn" data-action="%s">%s</button>`,
			html.EscapeString(reply.Action), html.EscapeString(reply.Text))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// availableSlots filters to the slots a user can actually book.
func availableSlots(slots []chatmodel.TimeSlot) []chatmodel.TimeSlot {
	out := make([]chatmodel.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Available {
			out = append(out, slot)
		}
	}
	return out
}
