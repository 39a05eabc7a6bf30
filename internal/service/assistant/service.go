package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dinedesk/backend/internal/config"
	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	"github.com/dinedesk/backend/internal/model/restaurant"
)

const systemPrompt = `You are DineDesk, a smart restaurant assistant. Track conversation context and NEVER repeat questions.

CRITICAL RULES:
- NEVER ask the same question twice
- Extract ALL details from each user message
- Move to the next needed info immediately
- Maximum 15 words per response

FLOW:
Need: Location -> Cuisine -> Show restaurants
- Only ask what is missing
- Do not repeat or confirm`

// Service generates assistant replies: keyword heuristics pick the intent
// and restaurant cards, the optional Ark model phrases the text. Without
// credentials the canned phrasing is used, so the service always answers.
type Service struct {
	restaurants restaurant.Store
	cfg         config.AssistantConfig
	chain       compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the reply engine. A nil chain (no AI configured) is a
// supported mode, not an error.
func NewService(ctx context.Context, restaurants restaurant.Store, aiCfg config.AIConfig, cfg config.AssistantConfig) (*Service, error) {
	svc := &Service{restaurants: restaurants, cfg: cfg}

	if aiCfg.Enabled() {
		chatModel, err := aiCfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}

		promptTemplate := prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		)

		chain := compose.NewChain[map[string]any, *schema.Message]()
		chain.AppendChatTemplate(promptTemplate)
		chain.AppendChatModel(chatModel)

		runnable, err := chain.Compile(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compile chat chain: %w", err)
		}
		svc.chain = runnable
	}

	return svc, nil
}

// TypingDelay is how long clients should show the typing indicator before
// painting a reply.
func (s *Service) TypingDelay() time.Duration {
	return s.cfg.TypingDelay
}

// Reply produces the assistant turn for a user message. Exactly one reply
// per invocation; failures bubble up for the handler to convert into the
// error envelope.
func (s *Service) Reply(ctx context.Context, history []chatmodel.Message, userText string) (chatmodel.Message, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return chatmodel.Message{}, fmt.Errorf("empty user message")
	}

	if MentionsUnservedArea(userText) {
		return chatmodel.Message{
			Role:    chatmodel.RoleAssistant,
			Content: "Sorry, we don't serve that area yet. Try New York instead?",
			Kind:    chatmodel.KindText,
			QuickReplies: []chatmodel.QuickReply{
				{Text: "New York restaurants", Action: "new_york"},
				{Text: "Browse all", Action: "browse"},
			},
			CreatedAt: time.Now().UTC(),
		}, nil
	}

	intent := DetectIntent(userText)
	cards, err := s.lookupCards(ctx, userText, intent)
	if err != nil {
		return chatmodel.Message{}, err
	}

	content := s.phrase(ctx, history, userText, intent, len(cards))

	reply := chatmodel.Message{
		Role:         chatmodel.RoleAssistant,
		Content:      content,
		Kind:         chatmodel.KindText,
		QuickReplies: quickReplies(intent),
		CreatedAt:    time.Now().UTC(),
	}
	if len(cards) > 0 {
		reply.Kind = chatmodel.KindCard
		reply.Cards = cards
	}
	return reply, nil
}

// Welcome seeds a new chat with the greeting and starter quick replies.
func (s *Service) Welcome() chatmodel.Message {
	return chatmodel.Message{
		Role: chatmodel.RoleAssistant,
		Content: "Hi! Welcome to DineDesk! I'm here to help you with restaurant " +
			"reservations and food delivery. How can I assist you today?",
		Kind: chatmodel.KindText,
		QuickReplies: []chatmodel.QuickReply{
			{Text: "Make a Reservation", Action: "reservation"},
			{Text: "Order Food", Action: "delivery"},
			{Text: "Browse Restaurants", Action: "browse"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

// comingSoonFeatures maps card-action prefixes to the notice shown instead
// of a real reply. These never reach the reply engine.
var comingSoonFeatures = map[string]string{
	"book_":    "Booking feature will be implemented soon!",
	"menu_":    "Menu viewing feature coming soon!",
	"order_":   "Online ordering feature in development!",
	"reviews_": "Reviews feature coming soon!",
}

// ComingSoonNotice returns the placeholder notice for recognized action
// prefixes and false for anything else.
func ComingSoonNotice(action string) (string, bool) {
	for prefix, notice := range comingSoonFeatures {
		if strings.HasPrefix(action, prefix) {
			return notice, true
		}
	}
	return "", false
}

func (s *Service) lookupCards(ctx context.Context, userText string, intent Intent) ([]chatmodel.Card, error) {
	if intent == IntentGeneral {
		return nil, nil
	}

	var (
		matches []restaurant.Restaurant
		err     error
	)
	cuisine := DetectCuisine(userText)
	switch {
	case intent == IntentBooking:
		matches, err = s.restaurants.ForBooking(ctx, s.cfg.CardLimit)
	case cuisine != "":
		matches, err = s.restaurants.ByCuisine(ctx, cuisine, s.cfg.CardLimit)
	default:
		matches, err = s.restaurants.Popular(ctx, s.cfg.CardLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("restaurant lookup failed: %w", err)
	}

	cards := make([]chatmodel.Card, 0, len(matches))
	for _, match := range matches {
		cards = append(cards, match.Card())
	}
	return cards, nil
}

// phrase produces the reply text, via the model when configured. Model
// failures degrade to the canned phrasing rather than failing the send.
func (s *Service) phrase(ctx context.Context, history []chatmodel.Message, userText string, intent Intent, cardCount int) string {
	if s.chain == nil {
		return cannedPhrase(intent, cardCount)
	}

	input := map[string]any{
		"system":  systemPrompt + "\n\n" + s.contextSummary(history, userText),
		"history": historyMessages(history, s.cfg.HistoryLimit),
		"query":   userText,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil || strings.TrimSpace(response.Content) == "" {
		log.Printf("[assistant] model phrasing failed, using fallback: %v", err)
		return cannedPhrase(intent, cardCount)
	}
	return strings.TrimSpace(response.Content)
}

// contextSummary condenses what the conversation already established so the
// model never re-asks for it.
func (s *Service) contextSummary(history []chatmodel.Message, userText string) string {
	var location, cuisine, service string

	scan := func(text string) {
		lower := strings.ToLower(text)
		for _, area := range servedAreas {
			if strings.Contains(lower, area) {
				location = "new york"
			}
		}
		if c := DetectCuisine(text); c != "" {
			cuisine = c
		}
		if strings.Contains(lower, "delivery") || strings.Contains(lower, "order") {
			service = "delivery"
		} else if strings.Contains(lower, "book") || strings.Contains(lower, "table") || strings.Contains(lower, "reservation") {
			service = "reservation"
		}
	}

	for _, message := range history {
		if message.Role == chatmodel.RoleUser {
			scan(message.Content)
		}
	}
	scan(userText)

	return fmt.Sprintf("Known: location=%s, cuisine=%s, service=%s",
		orUnknown(location), orUnknown(cuisine), orUnknown(service))
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func historyMessages(history []chatmodel.Message, limit int) []*schema.Message {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]*schema.Message, 0, len(history))
	for _, message := range history {
		switch message.Role {
		case chatmodel.RoleUser:
			out = append(out, schema.UserMessage(message.Content))
		case chatmodel.RoleAssistant:
			out = append(out, schema.AssistantMessage(message.Content, nil))
		}
	}
	return out
}

func cannedPhrase(intent Intent, cardCount int) string {
	switch intent {
	case IntentBooking:
		if cardCount > 0 {
			return "Here are restaurants with tables available today:"
		}
		return "Which area and what time would you like to book for?"
	case IntentSearch:
		if cardCount > 0 {
			return "Here are some places you might like:"
		}
		return "What cuisine are you in the mood for?"
	case IntentMenu:
		if cardCount > 0 {
			return "These spots have popular dishes worth a look:"
		}
		return "Which restaurant's menu would you like to see?"
	default:
		return "I'm here to help you with restaurant bookings and food orders. How can I assist you today?"
	}
}

func quickReplies(intent Intent) []chatmodel.QuickReply {
	switch intent {
	case IntentBooking:
		return []chatmodel.QuickReply{
			{Text: "Book a table", Action: "booking"},
			{Text: "See more restaurants", Action: "more_restaurants"},
			{Text: "Different time", Action: "change_time"},
		}
	case IntentMenu:
		return []chatmodel.QuickReply{
			{Text: "View full menu", Action: "full_menu"},
			{Text: "Order now", Action: "order"},
			{Text: "See reviews", Action: "reviews"},
		}
	case IntentSearch:
		return []chatmodel.QuickReply{
			{Text: "Book a table", Action: "booking"},
			{Text: "Order delivery", Action: "delivery"},
			{Text: "See more options", Action: "more_options"},
		}
	default:
		return []chatmodel.QuickReply{
			{Text: "Find restaurants", Action: "search"},
			{Text: "Book a table", Action: "booking"},
			{Text: "Order food", Action: "order"},
			{Text: "Get help", Action: "help"},
		}
	}
}
