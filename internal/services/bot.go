package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cliq-relay-backend/internal/data/repos"
	"github.com/yungbote/cliq-relay-backend/internal/domain"
	"github.com/yungbote/cliq-relay-backend/internal/observability"
	"github.com/yungbote/cliq-relay-backend/internal/platform/apierr"
	"github.com/yungbote/cliq-relay-backend/internal/platform/dbctx"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

// ExternalID accepts a Cliq user id sent either as a JSON string or number.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id must be a string or number")
	}
	*id = ExternalID(n.String())
	return nil
}

type BotUser struct {
	ID    ExternalID `json:"id"`
	Name  *string    `json:"name"`
	Email *string    `json:"email"`
}

type BotMessage struct {
	Message *string  `json:"message"`
	User    *BotUser `json:"user"`
}

// Validate reports the first missing field.
func (m BotMessage) Validate() error {
	switch {
	case m.Message == nil || *m.Message == "":
		return apierr.Validation("Invalid payload. Require message and user.id").WithDetail("field", "message")
	case m.User == nil:
		return apierr.Validation("Invalid payload. Require message and user.id").WithDetail("field", "user")
	case strings.TrimSpace(string(m.User.ID)) == "":
		return apierr.Validation("Invalid payload. Require message and user.id").WithDetail("field", "user.id")
	}
	return nil
}

type BotService interface {
	HandleMessage(ctx context.Context, in BotMessage) (string, error)
}

type botService struct {
	db         *gorm.DB
	log        *logger.Logger
	identities repos.IdentityRepo
	botLogs    repos.BotLogRepo
	metrics    *observability.Metrics
}

func NewBotService(
	db *gorm.DB,
	log *logger.Logger,
	identities repos.IdentityRepo,
	botLogs repos.BotLogRepo,
	metrics *observability.Metrics,
) BotService {
	return &botService{
		db:         db,
		log:        log.With("service", "BotService"),
		identities: identities,
		botLogs:    botLogs,
		metrics:    metrics,
	}
}

// HandleMessage runs one conversational turn: resolve the identity, log
// the message, then read the prior entry and the running count. The log
// steps share a transaction so the reads see the insert.
func (s *botService) HandleMessage(ctx context.Context, in BotMessage) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	cliqID := strings.TrimSpace(string(in.User.ID))
	// Once the turn starts writing it is not abandoned on caller disconnect.
	ctx = context.WithoutCancel(ctx)

	ident, created, err := s.identities.FindOrCreate(dbctx.From(ctx), cliqID, nonEmpty(in.User.Name), nonEmpty(in.User.Email))
	if err != nil {
		return "", apierr.Persistence("resolve identity", err)
	}
	s.metrics.ObserveBotMessage(created)
	if created {
		s.log.Info("new identity", "cliq_user_id", cliqID)
	}

	var (
		prior *domain.BotLog
		count int64
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		entry := &domain.BotLog{
			UserID:    ident.ID,
			Message:   *in.Message,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.botLogs.Append(dbc, entry); err != nil {
			return fmt.Errorf("append bot log: %w", err)
		}
		p, err := s.botLogs.PriorTo(dbc, entry)
		if err != nil {
			return fmt.Errorf("prior bot log: %w", err)
		}
		n, err := s.botLogs.CountByUser(dbc, ident.ID)
		if err != nil {
			return fmt.Errorf("count bot logs: %w", err)
		}
		prior, count = p, n
		return nil
	})
	if txErr != nil {
		return "", apierr.Persistence("log message", txErr)
	}

	return ComposeReply(ident, prior, count), nil
}

// ComposeReply renders the greeting for one turn.
func ComposeReply(ident *domain.Identity, prior *domain.BotLog, count int64) string {
	lines := []string{fmt.Sprintf("Hello %s!", ident.DisplayName())}
	if prior != nil && prior.Message != "" {
		lines = append(lines, fmt.Sprintf("Your previous message was: \"%s\".", prior.Message))
	} else {
		lines = append(lines, "This looks like your first message with me.")
	}
	lines = append(lines, fmt.Sprintf("Total messages you've sent so far: %d.", count))
	return strings.Join(lines, "\n")
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
