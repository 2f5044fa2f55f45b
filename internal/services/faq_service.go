package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/simplecomm-be/internal/ai"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/rs/zerolog/log"
)

// Ask modes.
const (
	AskModeAI    = "ai"
	AskModeHuman = "human"
)

// FAQServiceProvider defines the interface for community Q&A services.
type FAQServiceProvider interface {
	AskQuestion(ctx context.Context, userID, communityID, question, mode string) (AskResult, error)
	AnswerQuestion(ctx context.Context, userID, faqID, answer string) (models.FAQ, error)
	GetFAQs(ctx context.Context, communityID string) ([]models.FAQ, error)
}

// AskResult is the stored entry plus, when the AI call failed, the text to
// show the asker.
type AskResult struct {
	FAQ    models.FAQ `json:"faq"`
	Notice string     `json:"notice,omitempty"`
}

// FAQService stores questions and their answers.
type FAQService struct {
	db        *sql.DB
	clock     *Clock
	users     UserServiceProvider
	answerer  ai.Answerer
	publisher realtime.Publisher
}

// NewFAQService creates a new FAQService.
func NewFAQService(db *sql.DB, clock *Clock, users UserServiceProvider, answerer ai.Answerer, publisher realtime.Publisher) *FAQService {
	return &FAQService{db: db, clock: clock, users: users, answerer: answerer, publisher: publisher}
}

const faqColumns = "id, community_id, question, answer, asker, asker_id, type, status, created_at, answered_at"

// AskQuestion records a question. In AI mode the answer is requested
// immediately; if that fails the entry is kept unanswered and the failure
// text is returned as the notice.
func (s *FAQService) AskQuestion(ctx context.Context, userID, communityID, question, mode string) (AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AskResult{}, validationError("question is required")
	}
	if mode == "" {
		mode = AskModeHuman
	}
	if mode != AskModeAI && mode != AskModeHuman {
		return AskResult{}, validationError("unknown ask mode %q", mode)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return AskResult{}, err
	}
	community, err := getCommunity(ctx, s.db, communityID)
	if err != nil {
		return AskResult{}, err
	}

	faq := models.FAQ{
		ID:          uuid.New().String(),
		CommunityID: communityID,
		Question:    question,
		Asker:       user.Username,
		AskerID:     user.ID,
		Type:        models.FAQTypeHuman,
		Status:      models.FAQStatusOnHold,
	}

	var result AskResult
	if mode == AskModeAI {
		faq.Type = models.FAQTypeAI
		answer, err := "", ai.ErrMissingAPIKey
		if s.answerer != nil {
			answer, err = s.answerer.Ask(ctx, question, community.Name)
		}
		if err != nil {
			log.Warn().Err(err).Str("community_id", communityID).Msg("AI answer failed, question kept on hold")
			result.Notice = ai.Message(err)
		} else {
			now := s.clock.Now()
			faq.Answer = answer
			faq.Status = models.FAQStatusFinished
			faq.AnsweredAt = &now
		}
	}

	faq.CreatedAt = s.clock.Now()
	var answeredAt any
	if faq.AnsweredAt != nil {
		answeredAt = faq.AnsweredAt.UnixNano()
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO faqs ("+faqColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		faq.ID, faq.CommunityID, faq.Question, faq.Answer, faq.Asker, faq.AskerID, faq.Type, faq.Status,
		faq.CreatedAt.UnixNano(), answeredAt)
	if err != nil {
		return AskResult{}, fmt.Errorf("failed to insert faq: %w", err)
	}

	publish(s.publisher, realtime.CollectionFAQs, communityID)
	result.FAQ = faq
	return result, nil
}

// AnswerQuestion lets the community creator answer an entry, finishing it.
func (s *FAQService) AnswerQuestion(ctx context.Context, userID, faqID, answer string) (models.FAQ, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return models.FAQ{}, validationError("answer is required")
	}

	faq, err := scanFAQ(s.db.QueryRowContext(ctx, "SELECT "+faqColumns+" FROM faqs WHERE id = ?", faqID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FAQ{}, fmt.Errorf("%w: %s", ErrFAQNotFound, faqID)
		}
		return models.FAQ{}, err
	}
	community, err := getCommunity(ctx, s.db, faq.CommunityID)
	if err != nil {
		return models.FAQ{}, err
	}
	if community.CreatedBy != userID {
		return models.FAQ{}, ErrForbidden
	}

	now := s.clock.Now()
	faq.Answer = answer
	faq.Status = models.FAQStatusFinished
	faq.AnsweredAt = &now
	_, err = s.db.ExecContext(ctx, "UPDATE faqs SET answer = ?, status = ?, answered_at = ? WHERE id = ?",
		faq.Answer, faq.Status, now.UnixNano(), faq.ID)
	if err != nil {
		return models.FAQ{}, fmt.Errorf("failed to answer faq: %w", err)
	}

	publish(s.publisher, realtime.CollectionFAQs, faq.CommunityID)
	return faq, nil
}

// GetFAQs lists a community's questions, newest first.
func (s *FAQService) GetFAQs(ctx context.Context, communityID string) ([]models.FAQ, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+faqColumns+" FROM faqs WHERE community_id = ? ORDER BY created_at DESC", communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}
	defer rows.Close()

	faqs := []models.FAQ{}
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

func scanFAQ(row rowScanner) (models.FAQ, error) {
	var faq models.FAQ
	var createdAt int64
	var answeredAt sql.NullInt64
	err := row.Scan(&faq.ID, &faq.CommunityID, &faq.Question, &faq.Answer, &faq.Asker, &faq.AskerID,
		&faq.Type, &faq.Status, &createdAt, &answeredAt)
	if err != nil {
		return models.FAQ{}, err
	}
	faq.CreatedAt = fromUnixNano(createdAt)
	if answeredAt.Valid {
		t := fromUnixNano(answeredAt.Int64)
		faq.AnsweredAt = &t
	}
	return faq, nil
}
