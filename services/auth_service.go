package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"pinboard/models"
	"pinboard/utils/errors"
)

const sessionTTL = 24 * time.Hour

// AuthService manages accounts and sessions: bcrypt password hashes in
// MongoDB, HS256 session tokens, live sessions cached in Redis so logout
// can revoke them.
type AuthService struct {
	mongoURI    string
	dbName      string
	redisClient *redis.Client
	jwtSecret   string

	mu         sync.Mutex
	collection *mongo.Collection
}

func NewAuthService(mongoURI, dbName string, redisClient *redis.Client, jwtSecret string) *AuthService {
	return &AuthService{
		mongoURI:    mongoURI,
		dbName:      dbName,
		redisClient: redisClient,
		jwtSecret:   jwtSecret,
	}
}

func (s *AuthService) users(ctx context.Context) (*mongo.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return s.collection, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.mongoURI))
	if err != nil {
		return nil, errors.NewUpstreamError("MongoDB connection failed", err)
	}
	collection := client.Database(s.dbName).Collection("users")

	// Ensure unique index on email
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("Failed to create unique index on users: %v", err)
	}
	s.collection = collection
	return s.collection, nil
}

// Register creates a new account and returns its public id.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.NewValidationError("email and password are required")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}

	user := models.User{
		PublicID:     uuid.New().String(),
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now().UTC(),
	}

	collection, err := s.users(ctx)
	if err != nil {
		return "", err
	}
	if _, err := collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.NewAPIError("EMAIL_TAKEN", "An account with this email already exists", http.StatusConflict)
		}
		return "", errors.NewUpstreamError("Failed to create user", err)
	}
	return user.PublicID, nil
}

// Login verifies credentials and returns a session token plus the session
// user. The session is cached in Redis keyed by the token id so it can be
// revoked on logout.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.SessionUser, error) {
	collection, err := s.users(ctx)
	if err != nil {
		return "", models.SessionUser{}, err
	}

	var user models.User
	if err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return "", models.SessionUser{}, errors.NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.SessionUser{}, errors.NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	}

	sessionID := uuid.New().String()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":    user.PublicID,
		"email":     user.Email,
		"sessionID": sessionID,
		"exp":       time.Now().Add(sessionTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", models.SessionUser{}, errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}

	sessionUser := models.SessionUser{UserID: user.PublicID, Email: user.Email}
	sessionJSON, err := json.Marshal(sessionUser)
	if err != nil {
		return tokenString, sessionUser, nil
	}
	if err := s.redisClient.Set(ctx, "session:"+sessionID, sessionJSON, sessionTTL).Err(); err != nil {
		log.Printf("Failed to cache session %s: %v", sessionID, err)
	}

	return tokenString, sessionUser, nil
}

// Logout revokes the session with the given id.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.redisClient.Del(ctx, "session:"+sessionID).Err(); err != nil {
		return errors.NewUpstreamError("Failed to revoke session", err)
	}
	return nil
}

// CurrentUser returns the user for a live session, or ErrUnauthorized if
// the session has been revoked or expired.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (models.SessionUser, error) {
	sessionJSON, err := s.redisClient.Get(ctx, "session:"+sessionID).Result()
	if err != nil {
		return models.SessionUser{}, errors.ErrUnauthorized
	}
	var sessionUser models.SessionUser
	if err := json.Unmarshal([]byte(sessionJSON), &sessionUser); err != nil {
		return models.SessionUser{}, errors.ErrUnauthorized
	}
	return sessionUser, nil
}
