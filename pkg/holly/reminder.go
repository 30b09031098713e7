package holly

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ilikeorangutans/holly/pkg/predicates"

	sq "github.com/Masterminds/squirrel"
)

var (
	reminderKeywords  = []string{"reminder", "remind me", "set reminder"}
	reminderTimeRegex = regexp.MustCompile(`(?i)(\d+)\s*(seconds?|minutes?)`)
)

// Reminder is a pending reminder. Duplicates are legal and independent, the
// id only exists so the sweep can delete exactly the rows it examined.
type Reminder struct {
	ID        int64     `db:"id" json:"-"`
	FireAt    time.Time `db:"fire_at" json:"time"`
	Message   string    `db:"message" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

func NewReminderStore(db *sqlx.DB) *ReminderStore {
	return &ReminderStore{
		db:     db,
		logger: log.With().Str("component", "reminders").Logger(),
	}
}

// ReminderStore holds pending reminders. The mutex serializes the sweep's
// select-then-delete against concurrent inserts.
type ReminderStore struct {
	mu     sync.Mutex
	db     *sqlx.DB
	logger zerolog.Logger
}

func (r *ReminderStore) Add(ctx context.Context, reminder *Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := sq.
		Insert("reminders").
		Columns("fire_at", "message", "created_at").
		Values(reminder.FireAt, reminder.Message, reminder.CreatedAt).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("could not get last inserted id: %w", err)
	}
	reminder.ID = id

	r.logger.Info().Int64("id", id).Time("fire-at", reminder.FireAt).Msg("added reminder")

	return nil
}

// Sweep removes every reminder due at now and returns the last one examined,
// or nil if nothing was due. When several reminders are due in the same
// sweep only that last one is surfaced, the rest are dropped silently;
// clients depend on this, don't "fix" it.
func (r *ReminderStore) Sweep(ctx context.Context, now time.Time) (*Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query, args := sq.
		Select("*").
		From("reminders").
		Where(sq.LtOrEq{"fire_at": now}).
		OrderBy("id").
		MustSql()

	var due []*Reminder
	if err := sqlx.SelectContext(ctx, r.db, &due, query, args...); err != nil {
		return nil, fmt.Errorf("could not select due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(due))
	for i, reminder := range due {
		ids[i] = reminder.ID
	}

	if _, err := sq.Delete("reminders").Where(sq.Eq{"id": ids}).RunWith(r.db).ExecContext(ctx); err != nil {
		return nil, fmt.Errorf("could not remove fired reminders: %w", err)
	}

	for _, reminder := range due {
		r.logger.Info().Int64("id", reminder.ID).Str("message", reminder.Message).Msg("firing reminder")
	}

	return due[len(due)-1], nil
}

func (r *ReminderStore) Count(ctx context.Context) (int, error) {
	query, args := sq.Select("count(*)").From("reminders").MustSql()

	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, args...); err != nil {
		return 0, err
	}

	return count, nil
}

type ReminderSetResponse struct {
	Response
	Reminder *Reminder `json:"reminder,omitempty"`
}

func AddReminderHandler(a *Assistant, store *ReminderStore) {
	a.On(
		func(ctx context.Context, cmd Command) (Payload, error) {
			timeStr := reminderTimeRegex.FindString(cmd.Raw)
			if timeStr == "" {
				return Response{
					Text: "To set a reminder, please use a phrase like, 'set a reminder to take out the trash in 5 minutes'.",
					Type: "error",
				}, nil
			}

			remainder := cmd.Raw
			if idx := strings.Index(cmd.Raw, timeStr); idx >= 0 {
				remainder = cmd.Raw[idx+len(timeStr):]
			}

			// the " to " check runs before trimming so the usual
			// "... 5 minutes to call mom" form is recognized
			message := strings.TrimSpace(remainder)
			if idx := strings.Index(remainder, " to "); idx >= 0 {
				message = strings.TrimSpace(remainder[idx+len(" to "):])
			}

			if message == "" {
				return Response{
					Text: "I found a time, but couldn't find a reminder message. Please use a phrase like 'remind me in 5 minutes to call mom.'",
					Type: "error",
				}, nil
			}

			return setReminder(ctx, store, message, timeStr, cmd.Now)
		},
		predicates.ContainsAny(reminderKeywords...),
	)
}

// setReminder parses the time spec and inserts the reminder. Parse problems
// become guidance text, never errors, and keep the reminder_set type the
// dispatcher already chose.
func setReminder(ctx context.Context, store *ReminderStore, message, timeStr string, now time.Time) (Payload, error) {
	lowered := strings.ToLower(timeStr)

	var unit time.Duration
	var unitName string
	switch {
	case strings.Contains(lowered, "seconds"):
		unit, unitName = time.Second, "seconds"
	case strings.Contains(lowered, "minutes"):
		unit, unitName = time.Minute, "minutes"
	default:
		return ReminderSetResponse{
			Response: Response{
				Text: "I can only set reminders in seconds or minutes for now. Please try again.",
				Type: "reminder_set",
			},
		}, nil
	}

	// amounts beyond the int range fail to parse and read as unparseable
	amount, err := strconv.Atoi(strings.Fields(lowered)[0])
	if err != nil {
		return ReminderSetResponse{
			Response: Response{
				Text: "Sorry, I couldn't understand the time. Please specify a number followed by 'seconds' or 'minutes'.",
				Type: "reminder_set",
			},
		}, nil
	}

	reminder := &Reminder{
		FireAt:    now.Add(time.Duration(amount) * unit),
		Message:   message,
		CreatedAt: now,
	}
	if err := store.Add(ctx, reminder); err != nil {
		return nil, err
	}

	return ReminderSetResponse{
		Response: Response{
			Text: fmt.Sprintf("Okay, I will remind you to '%s' in %d %s.", message, amount, unitName),
			Type: "reminder_set",
		},
		Reminder: reminder,
	}, nil
}
