package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

// MatchRepository abstracts match persistence. Participants are never updated.
type MatchRepository interface {
	CreateOrGetMatch(ctx context.Context, userID, otherID string, via models.MatchVia) (models.Match, error)
	GetMatch(ctx context.Context, matchID uuid.UUID) (models.Match, error)
	ListForUser(ctx context.Context, userID string) ([]models.Match, error)
}

// MatchRepo is a sqlx implementation of MatchRepository.
type MatchRepo struct {
	db *sqlx.DB
}

// NewMatchRepo constructs a MatchRepo.
func NewMatchRepo(db *sqlx.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// CreateOrGetMatch creates a match between two users if it does not already exist.
func (r *MatchRepo) CreateOrGetMatch(ctx context.Context, userID, otherID string, via models.MatchVia) (models.Match, error) {
	if userID == otherID {
		return models.Match{}, ErrSelfMatch
	}
	participants := []string{userID, otherID}
	sort.Strings(participants)
	user1, user2 := participants[0], participants[1]

	var match models.Match
	err := r.db.GetContext(ctx, &match, `INSERT INTO matches (id, user1_id, user2_id, via) VALUES ($1, $2, $3, $4)
        ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = EXCLUDED.user1_id
        RETURNING id, user1_id, user2_id, via, created_at`, uuid.New(), user1, user2, via)
	return match, err
}

// GetMatch fetches a match by id.
func (r *MatchRepo) GetMatch(ctx context.Context, matchID uuid.UUID) (models.Match, error) {
	var match models.Match
	err := r.db.GetContext(ctx, &match, `SELECT id, user1_id, user2_id, via, created_at FROM matches WHERE id=$1`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Match{}, ErrMatchNotFound
	}
	return match, err
}

// ListForUser returns the matches userID participates in, newest first.
func (r *MatchRepo) ListForUser(ctx context.Context, userID string) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.SelectContext(ctx, &matches, `SELECT id, user1_id, user2_id, via, created_at FROM matches
        WHERE user1_id=$1 OR user2_id=$1 ORDER BY created_at DESC`, userID)
	return matches, err
}
