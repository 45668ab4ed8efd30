// Package mongodb реализует хранилище учётных записей на MongoDB.
// Пользователи лежат в коллекции users с уникальным индексом по username.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/team-portal/internal/models"
	"github.com/magabrotheeeer/team-portal/internal/storage"
)

const usersCollection = "users"

// Storage хранит клиента MongoDB и коллекцию пользователей.
type Storage struct {
	client *mongo.Client
	users  *mongo.Collection
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	Team         string             `bson:"team"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// New подключается к MongoDB по uri, проверяет соединение и создаёт
// уникальный индекс по username, если его ещё нет.
func New(ctx context.Context, uri, database string) (*Storage, error) {
	const op = "storage.mongodb.New"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users := client.Database(database).Collection(usersCollection)
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{client: client, users: users}, nil
}

// CreateUser сохраняет нового пользователя и возвращает hex его ObjectID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.mongodb.CreateUser"

	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Name:         user.Name,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Team:         user.Team,
		Role:         user.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrDuplicateUsername)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return doc.ID.Hex(), nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.mongodb.GetUserByUsername"

	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.User{
		UUID:         doc.ID.Hex(),
		Name:         doc.Name,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		Team:         doc.Team,
		Role:         doc.Role,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// Ping проверяет доступность MongoDB.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close отключает клиента MongoDB.
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
