package mongodb

import (
	"context"
	"fmt"
	"time"

	"buildmarket/internal/auth/domain/model"
	"buildmarket/internal/auth/domain/repository"
	apperrors "buildmarket/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIdentityRepository implements IdentityRepository using MongoDB.
// Accounts live in their own collection, keyed by uid, separate from the
// users profile collection the gateway serves.
type MongoIdentityRepository struct {
	accounts *mongo.Collection
}

// NewMongoIdentityRepository creates the repository and provisions the
// unique email index.
func NewMongoIdentityRepository(db *mongo.Database) (*MongoIdentityRepository, error) {
	repo := &MongoIdentityRepository{
		accounts: db.Collection("accounts"),
	}

	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.accounts.Indexes().CreateOne(context.Background(), emailIndex); err != nil {
		return nil, fmt.Errorf("failed to create email index: %w", err)
	}

	return repo, nil
}

// CreateAccount creates a new provider identity.
func (r *MongoIdentityRepository) CreateAccount(ctx context.Context, account *model.Account) error {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.accounts.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetAccountByEmail retrieves an identity by email.
func (r *MongoIdentityRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.accounts.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("account %q: %w", email, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUID retrieves an identity by uid.
func (r *MongoIdentityRepository) GetAccountByUID(ctx context.Context, uid string) (*model.Account, error) {
	var account model.Account
	err := r.accounts.FindOne(ctx, bson.M{"_id": uid}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("account %q: %w", uid, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &account, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *MongoIdentityRepository) UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error {
	result, err := r.accounts.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("account %q: %w", uid, apperrors.ErrNotFound)
	}
	return nil
}

var _ repository.IdentityRepository = (*MongoIdentityRepository)(nil)
