package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
	// FlashKeyPrefix is the Redis key prefix for one-shot messages
	FlashKeyPrefix = "flash:"

	fieldUserID  = "user_id"
	fieldDraftID = "draft_thought_id"

	draftKeyLength = 40
)

// Session is the server-side state behind the session cookie. It never
// holds credentials.
type Session struct {
	Token   string
	UserID  uuid.UUID // uuid.Nil for anonymous visitors
	DraftID uuid.NullUUID
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != uuid.Nil
}

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Level   string `json:"level"` // success, error, info
	Message string `json:"message"`
}

// SessionStore keeps sessions in Redis under opaque random tokens.
type SessionStore struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, secretKey string) *SessionStore {
	return &SessionStore{
		client: client,
		secret: []byte(secretKey),
		ttl:    SessionDuration,
	}
}

func newSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

// Key derives the draft session key from a token so raw tokens never
// reach PostgreSQL.
func (s *SessionStore) Key(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))[:draftKeyLength]
}

// Create starts an anonymous session.
func (s *SessionStore) Create(ctx context.Context) (*Session, error) {
	sess := &Session{}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// save writes sess under a fresh token.
func (s *SessionStore) save(ctx context.Context, sess *Session) error {
	token, err := newSessionToken()
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		fieldUserID:  "",
		fieldDraftID: "",
	}
	if sess.UserID != uuid.Nil {
		fields[fieldUserID] = sess.UserID.String()
	}
	if sess.DraftID.Valid {
		fields[fieldDraftID] = sess.DraftID.UUID.String()
	}

	sessionKey := SessionKeyPrefix + token
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey, fields)
		pipe.Expire(ctx, sessionKey, s.ttl)
		if sess.UserID != uuid.Nil {
			pipe.Set(ctx, UserSessionKeyPrefix+sess.UserID.String(), token, s.ttl)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sess.Token = token
	return nil
}

// Get loads the session for token. ok is false for unknown or expired tokens.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, bool, error) {
	if token == "" {
		return nil, false, nil
	}

	values, err := s.client.HGetAll(ctx, SessionKeyPrefix+token).Result()
	if err != nil {
		return nil, false, err
	}
	if len(values) == 0 {
		return nil, false, nil
	}

	sess := &Session{Token: token}
	if raw := values[fieldUserID]; raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt session user id: %w", err)
		}
		sess.UserID = userID
	}
	if raw := values[fieldDraftID]; raw != "" {
		if draftID, err := uuid.Parse(raw); err == nil {
			sess.DraftID = uuid.NullUUID{UUID: draftID, Valid: true}
		}
	}
	return sess, true, nil
}

// Login replaces current (may be nil) with an authenticated session for
// userID under a new token. The user's previous session is dropped and a
// pending draft reference is carried over.
func (s *SessionStore) Login(ctx context.Context, current *Session, userID uuid.UUID) (*Session, error) {
	if err := s.InvalidateUserSessions(ctx, userID); err != nil {
		return nil, err
	}

	next := &Session{UserID: userID}
	if current != nil {
		next.DraftID = current.DraftID
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	if current != nil && current.Token != "" {
		s.client.Del(ctx, SessionKeyPrefix+current.Token, FlashKeyPrefix+current.Token)
	}
	return next, nil
}

// Destroy removes a session and, if it is the user's current one, the
// user->session mapping.
func (s *SessionStore) Destroy(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return nil
	}

	if sess.UserID != uuid.Nil {
		userSessionKey := UserSessionKeyPrefix + sess.UserID.String()
		current, err := s.client.Get(ctx, userSessionKey).Result()
		if err == nil && current == sess.Token {
			s.client.Del(ctx, userSessionKey)
		}
	}
	return s.client.Del(ctx, SessionKeyPrefix+sess.Token, FlashKeyPrefix+sess.Token).Err()
}

// InvalidateUserSessions drops the current session of a user.
func (s *SessionStore) InvalidateUserSessions(ctx context.Context, userID uuid.UUID) error {
	userSessionKey := UserSessionKeyPrefix + userID.String()

	token, err := s.client.Get(ctx, userSessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if token != "" {
		s.client.Del(ctx, SessionKeyPrefix+token, FlashKeyPrefix+token)
	}
	return s.client.Del(ctx, userSessionKey).Err()
}

// SetDraft records the pending draft id on the session.
func (s *SessionStore) SetDraft(ctx context.Context, sess *Session, draftID uuid.UUID) error {
	if err := s.client.HSet(ctx, SessionKeyPrefix+sess.Token, fieldDraftID, draftID.String()).Err(); err != nil {
		return err
	}
	sess.DraftID = uuid.NullUUID{UUID: draftID, Valid: true}
	return nil
}

// ClearDraft forgets the pending draft id.
func (s *SessionStore) ClearDraft(ctx context.Context, sess *Session) error {
	if err := s.client.HSet(ctx, SessionKeyPrefix+sess.Token, fieldDraftID, "").Err(); err != nil {
		return err
	}
	sess.DraftID = uuid.NullUUID{}
	return nil
}

// AddFlash queues a message for the next rendered page of the session.
func (s *SessionStore) AddFlash(ctx context.Context, sess *Session, level, message string) error {
	if sess == nil || sess.Token == "" {
		return nil
	}
	payload, err := json.Marshal(Flash{Level: level, Message: message})
	if err != nil {
		return err
	}

	key := FlashKeyPrefix + sess.Token
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

// PopFlashes returns and clears the queued messages.
func (s *SessionStore) PopFlashes(ctx context.Context, sess *Session) ([]Flash, error) {
	if sess == nil || sess.Token == "" {
		return nil, nil
	}

	key := FlashKeyPrefix + sess.Token
	var rangeCmd *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rangeCmd = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw := rangeCmd.Val()
	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
