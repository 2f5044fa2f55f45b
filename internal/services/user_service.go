package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/simplecomm-be/internal/auth"
	"github.com/isdelr/simplecomm-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, username, email, password, city string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (models.User, error)
	UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	CreateGroup(ctx context.Context, userID, name string, communityIDs []string) (models.CommunityGroup, error)
}

// ProfileUpdate carries editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string `json:"username"`
	City     *string `json:"city"`
	PhotoURL *string `json:"photoURL"`
}

// UserService provides business logic for user management.
type UserService struct {
	db    *sql.DB
	clock *Clock
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, clock *Clock) *UserService {
	return &UserService{db: db, clock: clock}
}

// GetUserByID retrieves a single user by their ID, including the joined
// community mirror and the folder list.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, city, photo_url, community_groups_json, created_at FROM users WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return models.User{}, err
	}

	user.JoinedCommIDs, err = s.joinedCommunityIDs(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PrepareForAPI()
	return user, nil
}

// getUserByEmail retrieves a user by email, including the password hash.
func (s *UserService) getUserByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, city, photo_url, community_groups_json, created_at FROM users WHERE email = ?", email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var createdAt int64
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.City, &user.PhotoURL, &user.CommunityGroupsJSON, &createdAt)
	if err != nil {
		return models.User{}, err
	}
	user.CreatedAt = fromUnixNano(createdAt)
	return user, nil
}

// joinedCommunityIDs reads the user-side membership mirror. A user with no
// rows simply has joined nothing.
func (s *UserService) joinedCommunityIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT community_id FROM user_communities WHERE user_id = ? ORDER BY joined_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query joined communities: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateUser registers a new user, hashing their password.
func (s *UserService) CreateUser(ctx context.Context, username, email, password, city string) (models.User, error) {
	email = auth.NormalizeEmail(email)
	username = strings.TrimSpace(username)
	if err := auth.ValidateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	if username == "" {
		return models.User{}, validationError("username is required")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&exists)
	if err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, auth.ErrEmailExists
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		City:         strings.TrimSpace(city),
		PasswordHash: hashedPassword,
		CreatedAt:    s.clock.Now(),
	}
	user.PrepareForSave()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, username, email, password_hash, city, community_groups_json, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.City, user.CommunityGroupsJSON, user.CreatedAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return models.User{}, auth.ErrEmailExists
		}
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	// Return user without password hash
	user.PrepareForAPI()
	return user, nil
}

// UpdateProfile updates a user's non-sensitive information.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if name == "" {
			return models.User{}, validationError("username is required")
		}
		user.Username = name
	}
	if update.City != nil {
		user.City = strings.TrimSpace(*update.City)
	}
	if update.PhotoURL != nil {
		user.PhotoURL = strings.TrimSpace(*update.PhotoURL)
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET username = ?, city = ?, photo_url = ? WHERE id = ?",
		user.Username, user.City, user.PhotoURL, id)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdatePassword verifies the current password, then hashes and sets a new password for a user.
func (s *UserService) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if err := auth.CheckPassword(hash, currentPassword); err != nil {
		return err
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hashedPassword, id)
	return err
}

// AuthenticateUser verifies a user's credentials. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	email = auth.NormalizeEmail(email)
	if err := auth.ValidateEmail(email); err != nil {
		return models.User{}, err
	}

	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, auth.ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return models.User{}, err
	}

	return s.GetUserByID(ctx, user.ID)
}

// CreateGroup appends a new community folder to the user's ordered group list.
func (s *UserService) CreateGroup(ctx context.Context, userID, name string, communityIDs []string) (models.CommunityGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.CommunityGroup{}, validationError("group name is required")
	}

	ids := dedupe(communityIDs)
	if len(ids) == 0 {
		return models.CommunityGroup{}, validationError("select at least one community")
	}

	group := models.CommunityGroup{ID: uuid.New().String(), Name: name, CommunityIDs: ids}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CommunityGroup{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var user models.User
	err = tx.QueryRowContext(ctx, "SELECT community_groups_json FROM users WHERE id = ?", userID).Scan(&user.CommunityGroupsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CommunityGroup{}, ErrUserNotFound
		}
		return models.CommunityGroup{}, err
	}
	user.PrepareForAPI()
	user.CommunityGroups = append(user.CommunityGroups, group)
	user.PrepareForSave()

	if _, err := tx.ExecContext(ctx, "UPDATE users SET community_groups_json = ? WHERE id = ?", user.CommunityGroupsJSON, userID); err != nil {
		return models.CommunityGroup{}, fmt.Errorf("failed to save groups: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.CommunityGroup{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return group, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
