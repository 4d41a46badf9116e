package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pinboard/models"
	"pinboard/utils/errors"
)

// PinStore is the persistence contract for pins.
type PinStore interface {
	List(ctx context.Context) ([]models.Pin, error)
	Get(ctx context.Context, id string) (models.Pin, error)
	Create(ctx context.Context, input PinInput) (models.Pin, error)
	Delete(ctx context.Context, id string) error
}

// PinInput carries the client-supplied fields of a new pin. ID and
// CreatedAt are assigned by the store.
type PinInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	UserID      string  `json:"userId"`
	Category    string  `json:"category"`
}

const (
	pinsCacheKey = "pins:all"
	pinsCacheTTL = 30 * time.Second
)

// PinService stores pins in MongoDB with a Redis cache of the full list.
// The Mongo client is dialed lazily on first use and shared for the life
// of the process.
type PinService struct {
	mongoURI    string
	dbName      string
	redisClient *redis.Client

	mu         sync.Mutex
	collection *mongo.Collection
}

func NewPinService(mongoURI, dbName string, redisClient *redis.Client) *PinService {
	return &PinService{
		mongoURI:    mongoURI,
		dbName:      dbName,
		redisClient: redisClient,
	}
}

// pins returns the pin collection, connecting to MongoDB on first call.
func (s *PinService) pins(ctx context.Context) (*mongo.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return s.collection, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.mongoURI))
	if err != nil {
		return nil, errors.NewUpstreamError("MongoDB connection failed", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.NewUpstreamError("Failed to ping MongoDB", err)
	}
	log.Println("Connected to MongoDB")
	s.collection = client.Database(s.dbName).Collection("pins")
	return s.collection, nil
}

// List returns all pins, newest first.
func (s *PinService) List(ctx context.Context) ([]models.Pin, error) {
	if cached, err := s.redisClient.Get(ctx, pinsCacheKey).Result(); err == nil {
		var pins []models.Pin
		if err := json.Unmarshal([]byte(cached), &pins); err != nil {
			log.Printf("Failed to unmarshal cached pins, falling back to MongoDB: %v", err)
		} else {
			return pins, nil
		}
	}

	collection, err := s.pins(ctx)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.NewUpstreamError("Failed to fetch pins", err)
	}
	defer cursor.Close(ctx)

	pins := []models.Pin{}
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, errors.NewUpstreamError("Failed to decode pins", err)
	}

	if pinsJSON, err := json.Marshal(pins); err == nil {
		if err := s.redisClient.Set(ctx, pinsCacheKey, pinsJSON, pinsCacheTTL).Err(); err != nil {
			log.Printf("Failed to cache pins: %v", err)
		}
	}
	return pins, nil
}

// Get returns the pin with the given id.
func (s *PinService) Get(ctx context.Context, id string) (models.Pin, error) {
	collection, err := s.pins(ctx)
	if err != nil {
		return models.Pin{}, err
	}
	var pin models.Pin
	err = collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pin)
	if err == mongo.ErrNoDocuments {
		return models.Pin{}, errors.ErrNotFound
	}
	if err != nil {
		return models.Pin{}, errors.NewUpstreamError("Failed to fetch pin", err)
	}
	return pin, nil
}

// Create validates the input, assigns an id and creation time, and
// persists the pin.
func (s *PinService) Create(ctx context.Context, input PinInput) (models.Pin, error) {
	if err := ValidatePinInput(&input); err != nil {
		return models.Pin{}, err
	}
	collection, err := s.pins(ctx)
	if err != nil {
		return models.Pin{}, err
	}

	pin := models.Pin{
		ID:          primitive.NewObjectID().Hex(),
		Title:       input.Title,
		Description: input.Description,
		Lat:         input.Lat,
		Lng:         input.Lng,
		UserID:      input.UserID,
		Category:    input.Category,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := collection.InsertOne(ctx, pin); err != nil {
		return models.Pin{}, errors.NewUpstreamError("Failed to create pin", err)
	}
	s.invalidateCache(ctx)
	return pin, nil
}

// Delete removes the pin with the given id. Returns ErrNotFound if no
// such pin exists; a concurrent delete of the same pin races harmlessly
// to a single deletion, the loser sees ErrNotFound.
func (s *PinService) Delete(ctx context.Context, id string) error {
	collection, err := s.pins(ctx)
	if err != nil {
		return err
	}
	result, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.NewUpstreamError("Failed to delete pin", err)
	}
	if result.DeletedCount == 0 {
		return errors.ErrNotFound
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *PinService) invalidateCache(ctx context.Context) {
	if err := s.redisClient.Del(ctx, pinsCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate pin cache: %v", err)
	}
}

// ValidatePinInput checks required fields, coordinate ranges and category
// membership. An empty category defaults to landmark.
func ValidatePinInput(input *PinInput) *errors.APIError {
	if input.Title == "" {
		return errors.NewValidationError("title is required")
	}
	if input.Description == "" {
		return errors.NewValidationError("description is required")
	}
	if input.UserID == "" {
		return errors.NewValidationError("userId is required")
	}
	if input.Lat < -90 || input.Lat > 90 {
		return errors.NewValidationError(fmt.Sprintf("invalid latitude: %f", input.Lat))
	}
	if input.Lng < -180 || input.Lng > 180 {
		return errors.NewValidationError(fmt.Sprintf("invalid longitude: %f", input.Lng))
	}
	if input.Category == "" {
		input.Category = models.CategoryLandmark
	}
	if !models.ValidCategory(input.Category) {
		return errors.NewValidationError(fmt.Sprintf("unknown category: %q", input.Category))
	}
	return nil
}
