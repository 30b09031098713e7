package holly

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ilikeorangutans/holly/pkg/predicates"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	timeKeywords = []string{"time", "hour", "clock", "o'clock"}

	affirmationWords = []string{"yes", "would like", "i'd like that", "affirmative", "confirmative", "yep", "yeah", "please do", "sure", "positive", "do it"}

	farewellWords = []string{"exit", "goodbye", "bye", "see you later", "tata", "see ya", "shareenna", "alvida", "adios", "ciao", "au revoir", "sayonara", "pootte"}
)

// Command is a single incoming command. Matching happens against Lowered;
// substrings handed back to the user (locations, topics, reminder messages)
// are sliced out of Raw so their casing survives. Lowered is ASCII-lowered
// and therefore byte-length preserving: indexes found in it are valid in Raw.
type Command struct {
	Raw     string
	Lowered string
	Now     time.Time
}

// lowerASCII lowercases ASCII letters only. Unlike strings.ToLower it never
// changes the byte length of the input (ToLower does for characters like İ
// or Ⱥ), so extraction can slice Raw at indexes found in the lowered text.
// The keyword tables are all ASCII, matching is unaffected.
func lowerASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Payload is what a handler answers with. Every payload carries the response
// type tag the client keys its rendering off.
type Payload interface {
	Kind() string
}

type Response struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

func (r Response) Kind() string {
	return r.Type
}

type HandlerFunc func(ctx context.Context, cmd Command) (Payload, error)

type handler struct {
	fn         HandlerFunc
	predicates []predicates.CommandPredicate
}

func NewAssistant(reminders *ReminderStore, clock func() time.Time) *Assistant {
	if clock == nil {
		clock = time.Now
	}
	return &Assistant{
		reminders: reminders,
		clock:     clock,
		logger:    log.With().Str("component", "assistant").Logger(),
	}
}

// Assistant dispatches commands to an ordered list of handlers. Registration
// order is intent priority: the first handler whose predicates all match
// answers the command, later handlers are never consulted.
type Assistant struct {
	handlers  []handler
	reminders *ReminderStore
	clock     func() time.Time
	logger    zerolog.Logger
}

func (a *Assistant) On(fn HandlerFunc, preds ...predicates.CommandPredicate) {
	a.handlers = append(a.handlers, handler{
		fn:         fn,
		predicates: preds,
	})
}

// Handle classifies and answers a single command, then sweeps the reminder
// store. A due reminder replaces whatever answer the matched handler
// produced; that override is how reminders surface at all, there is no
// background timer firing them.
func (a *Assistant) Handle(ctx context.Context, raw string) (Payload, error) {
	cmd := Command{
		Raw:     raw,
		Lowered: lowerASCII(raw),
		Now:     a.clock(),
	}
	a.logger.Info().Str("command", cmd.Lowered).Msg("received command")

	response := Payload(Response{
		Text: "I'm sorry, I don't understand that command yet. Please try again.",
		Type: "error",
	})

	for _, h := range a.handlers {
		matches := true
		for _, p := range h.predicates {
			if !p(cmd.Lowered) {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}

		resp, err := h.fn(ctx, cmd)
		if err != nil {
			return nil, err
		}
		response = resp
		break
	}

	fired, err := a.reminders.Sweep(ctx, cmd.Now)
	if err != nil {
		a.logger.Error().Err(err).Msg("due-sweep failed")
	} else if fired != nil {
		response = Response{
			Text: fmt.Sprintf("Reminder: %s", fired.Message),
			Type: "reminder_alert",
		}
	}

	return response, nil
}

func AddTimeHandler(a *Assistant) {
	a.On(
		func(ctx context.Context, cmd Command) (Payload, error) {
			return Response{
				Text: fmt.Sprintf("The current time is %s", cmd.Now.Format("03:04 PM")),
				Type: "time",
			}, nil
		},
		predicates.ContainsAny(timeKeywords...),
	)
}

func AddConfirmationHandler(a *Assistant) {
	a.On(
		func(ctx context.Context, cmd Command) (Payload, error) {
			return Response{
				Text: "Okay, displaying the links now.",
				Type: "news_confirmation",
			}, nil
		},
		predicates.ContainsAny(affirmationWords...),
	)
}

func AddGoodbyeHandler(a *Assistant) {
	a.On(
		func(ctx context.Context, cmd Command) (Payload, error) {
			return Response{
				Text: "Goodbye! Have a great day.",
				Type: "goodbye",
			}, nil
		},
		predicates.ContainsAny(farewellWords...),
	)
}
