package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

type userDoc struct {
	ID               bson.ObjectID `bson:"_id,omitempty"`
	Email            string        `bson:"email"`
	Username         string        `bson:"username"`
	Password         string        `bson:"password"`
	Avatar           string        `bson:"avatar"`
	Birthday         string        `bson:"birthday"`
	Skype            string        `bson:"skype"`
	Phone            string        `bson:"phone"`
	AccessToken      string        `bson:"token"`
	RefreshToken     string        `bson:"refreshToken"`
	SessionExpiresAt *time.Time    `bson:"sessionExpiresAt,omitempty"`
	IsGoogleAuth     bool          `bson:"isGoogleAuth"`
	CreatedAt        time.Time     `bson:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:               d.ID.Hex(),
		Email:            d.Email,
		Username:         d.Username,
		PasswordHash:     d.Password,
		Avatar:           d.Avatar,
		Birthday:         d.Birthday,
		Skype:            d.Skype,
		Phone:            d.Phone,
		AccessToken:      d.AccessToken,
		RefreshToken:     d.RefreshToken,
		SessionExpiresAt: d.SessionExpiresAt,
		Federated:        d.IsGoogleAuth,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		ID:           bson.NewObjectID(),
		Email:        user.Email,
		Username:     user.Username,
		Password:     user.PasswordHash,
		Avatar:       user.Avatar,
		Birthday:     user.Birthday,
		Skype:        user.Skype,
		Phone:        user.Phone,
		IsGoogleAuth: user.Federated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) EmailTakenByOther(ctx context.Context, email, id string) (bool, error) {
	filter := bson.M{"email": email}
	if oid, ok := objectID(id); ok {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) SetTokens(ctx context.Context, id string, pair domain.TokenPair) error {
	return r.updateByID(ctx, id, bson.M{"$set": sessionFields(pair)})
}

func (r *UserRepository) RotateRefreshToken(ctx context.Context, oldRefresh string, pair domain.TokenPair) (*domain.User, error) {
	if oldRefresh == "" {
		return nil, domain.ErrUserNotFound
	}

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"refreshToken": oldRefresh},
		bson.M{"$set": sessionFields(pair)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) ClearTokens(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"token": "", "refreshToken": "", "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"sessionExpiresAt": ""},
	})
}

func (r *UserRepository) MarkFederated(ctx context.Context, id string, pair domain.TokenPair) error {
	set := sessionFields(pair)
	set["isGoogleAuth"] = true
	return r.updateByID(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) ClearExpiredSessions(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	// UpdateMany has no limit, so collect a bounded batch of ids first.
	cur, err := r.coll.Find(ctx,
		bson.M{"sessionExpiresAt": bson.M{"$lt": cutoff}},
		options.Find().SetProjection(bson.M{"_id": 1}).SetLimit(int64(limit)),
	)
	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}

	var ids []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &ids); err != nil {
		return 0, fmt.Errorf("decode expired sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	oids := make([]bson.ObjectID, len(ids))
	for i, d := range ids {
		oids[i] = d.ID
	}

	// re-check the expiry so a session refreshed in between is left alone
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}, "sessionExpiresAt": bson.M{"$lt": cutoff}},
		bson.M{
			"$set":   bson.M{"token": "", "refreshToken": "", "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"sessionExpiresAt": ""},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired sessions: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{"email": upd.Email, "updatedAt": time.Now().UTC()}
	optional := map[string]*string{
		"username": upd.Username,
		"avatar":   upd.Avatar,
		"birthday": upd.Birthday,
		"skype":    upd.Skype,
		"phone":    upd.Phone,
	}
	for field, v := range optional {
		if v != nil {
			set[field] = *v
		}
	}

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailInUse
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()}})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func sessionFields(pair domain.TokenPair) bson.M {
	return bson.M{
		"token":            pair.AccessToken,
		"refreshToken":     pair.RefreshToken,
		"sessionExpiresAt": pair.RefreshExpiresAt.UTC(),
		"updatedAt":        time.Now().UTC(),
	}
}
