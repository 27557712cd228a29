package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/thoughtify-backend/internal/database"
	"github.com/AnshRaj112/thoughtify-backend/internal/metrics"
	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/AnshRaj112/thoughtify-backend/pkg/utils"
	"github.com/google/uuid"
)

// maxCodeAttempts bounds the search for an unused anonymous code.
const maxCodeAttempts = 50

var errNoFreeCode = errors.New("could not find an unused anonymous code")

// SignupInput is the signup form.
type SignupInput struct {
	Email     string
	Password1 string
	Password2 string
}

type AccountService struct {
	db    *sql.DB
	now   func() time.Time
	randN func(n int) int
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{db: db, now: time.Now, randN: mathrand.Intn}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// verifyDummy spends the same time as a real password check so unknown
// emails cannot be told apart by latency.
func verifyDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("thoughtify-dummy-password")
	})
	_, _ = utils.VerifyPassword(password, dummyHash)
}

// Signup validates the form, then creates the user and their profile in
// one transaction.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, *models.UserProfile, error) {
	email := utils.NormalizeEmail(in.Email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, nil, fieldError(err)
	}
	if in.Password1 == "" {
		return nil, nil, models.NewFieldError("password1", "This field is required.")
	}
	if in.Password2 == "" {
		return nil, nil, models.NewFieldError("password2", "This field is required.")
	}
	if in.Password1 != in.Password2 {
		return nil, nil, models.NewFieldError("password2", "The two password fields didn't match.")
	}
	if err := utils.ValidatePassword(in.Password1); err != nil {
		return nil, nil, fieldError(err)
	}

	taken, err := s.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if taken {
		return nil, nil, models.NewConflictError("email", "This email is already in use")
	}

	user, profile, err := s.createUser(ctx, email, in.Password1, false)
	if err != nil {
		return nil, nil, err
	}
	metrics.Signups.Inc()
	return user, profile, nil
}

// CreateAdmin creates a staff account with a profile.
func (s *AccountService) CreateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fieldError(err)
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, fieldError(err)
	}
	user, _, err := s.createUser(ctx, email, password, true)
	return user, err
}

func (s *AccountService) createUser(ctx context.Context, email, password string, staff bool) (*models.User, *models.UserProfile, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	now := s.now()
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      staff,
		CreatedAt:    now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, is_active, is_staff, created_at)
		VALUES ($1, $2, TRUE, $3, $4)
		RETURNING id
	`, email, hash, staff, now).Scan(&user.ID)
	if err != nil {
		if database.IsPQCode(err, database.UniqueViolation) {
			return nil, nil, models.NewConflictError("email", "This email is already in use")
		}
		return nil, nil, err
	}

	profile, err := s.createProfile(ctx, tx, user.ID, email)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *AccountService) createProfile(ctx context.Context, tx *sql.Tx, userID uuid.UUID, email string) (*models.UserProfile, error) {
	code, err := s.GenerateAnonymousCode(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	token, err := newConfirmationToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	profile := &models.UserProfile{
		UserID:             userID,
		AnonymousCode:      code,
		ShowPublicThoughts: true,
		ConfirmationToken:  token,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_profiles (user_id, anonymous_code, show_public_thoughts, confirmation_token, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $4, $4)
		RETURNING id
	`, userID, code, token, now).Scan(&profile.ID)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GenerateAnonymousCode draws codes like "J042" (first letter of the email,
// upper-cased, then 001..999) until one is unused.
func (s *AccountService) GenerateAnonymousCode(ctx context.Context, q queryer, email string) (string, error) {
	first, _ := utf8.DecodeRuneInString(email)
	if first == utf8.RuneError {
		first = 'X'
	}
	prefix := strings.ToUpper(string(first))

	for i := 0; i < maxCodeAttempts; i++ {
		code := fmt.Sprintf("%s%03d", prefix, s.randN(999)+1)

		var exists bool
		err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM user_profiles WHERE anonymous_code = $1)`, code).Scan(&exists)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errNoFreeCode
}

func newConfirmationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// EmailExists checks whether an account uses email (case-insensitive).
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = $1)`,
		utils.NormalizeEmail(email)).Scan(&exists)
	return exists, err
}

// Authenticate checks email and password. Every failure is
// models.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginFailures.Inc()
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.userBy(ctx, `LOWER(email) = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		verifyDummy(password)
		metrics.LoginFailures.Inc()
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		metrics.LoginFailures.Inc()
		return nil, models.ErrInvalidCredentials
	}

	now := s.now()
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = sql.NullTime{Time: now, Valid: true}
	return user, nil
}

// GetUser returns an active user by id.
func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userBy(ctx, `id = $1 AND is_active = TRUE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, err
}

// FirstStaffUser returns the oldest staff account.
func (s *AccountService) FirstStaffUser(ctx context.Context) (*models.User, error) {
	user, err := s.userBy(ctx, `is_staff = TRUE ORDER BY created_at LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("User", "staff")
	}
	return user, err
}

// GetUserByEmail returns a user by email.
func (s *AccountService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userBy(ctx, `LOWER(email) = $1`, utils.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("User", email)
	}
	return user, err
}

func (s *AccountService) userBy(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_active, is_staff, created_at, last_login
		FROM users WHERE `+where, args...).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile returns the user's profile or models.ErrProfileMissing.
func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var p models.UserProfile
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, anonymous_code, show_public_thoughts, last_daily_thought,
			email_confirmed, confirmation_token, created_at, updated_at
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.AnonymousCode, &p.ShowPublicThoughts, &p.LastDailyThought,
		&p.EmailConfirmed, &token, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProfileMissing
	}
	if err != nil {
		return nil, err
	}
	p.ConfirmationToken = token.String
	return &p, nil
}

// ProfileOrDefault is Profile for read paths: a missing row yields the
// default profile instead of an error.
func (s *AccountService) ProfileOrDefault(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p, err := s.Profile(ctx, userID)
	if errors.Is(err, models.ErrProfileMissing) {
		return models.DefaultProfile(userID), nil
	}
	return p, err
}

// TogglePublicThoughts flips the feed preference and returns the new value.
func (s *AccountService) TogglePublicThoughts(ctx context.Context, userID uuid.UUID) (bool, error) {
	var show bool
	err := s.db.QueryRowContext(ctx, `
		UPDATE user_profiles
		SET show_public_thoughts = NOT show_public_thoughts, updated_at = $2
		WHERE user_id = $1
		RETURNING show_public_thoughts
	`, userID, s.now()).Scan(&show)
	if errors.Is(err, sql.ErrNoRows) {
		return false, models.ErrProfileMissing
	}
	return show, err
}

// ConfirmEmail marks the profile holding token as confirmed and burns the token.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) error {
	invalid := models.NewValidationError("This confirmation link is invalid or has already been used.")
	if token == "" {
		return invalid
	}

	var userID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		UPDATE user_profiles
		SET email_confirmed = TRUE, confirmation_token = NULL, updated_at = $2
		WHERE confirmation_token = $1
		RETURNING user_id
	`, token, s.now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return invalid
	}
	return err
}

// BackfillProfiles creates a profile for every user that lacks one.
func (s *AccountService) BackfillProfiles(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		WHERE p.id IS NULL
		ORDER BY u.created_at
	`)
	if err != nil {
		return 0, err
	}

	type pending struct {
		id    uuid.UUID
		email string
	}
	var missing []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.email); err != nil {
			rows.Close()
			return 0, err
		}
		missing = append(missing, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	created := 0
	for _, m := range missing {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return created, err
		}
		if _, err := s.createProfile(ctx, tx, m.id, m.email); err != nil {
			tx.Rollback()
			return created, fmt.Errorf("profile for %s: %w", m.email, err)
		}
		if err := tx.Commit(); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func fieldError(err error) error {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		return models.NewFieldError(ve.Field, ve.Message)
	}
	return models.NewValidationError(err.Error())
}
