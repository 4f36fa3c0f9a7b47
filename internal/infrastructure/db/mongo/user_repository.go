package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

const usersCollection = "users"

// UserRepository persists users in a single collection. The customer
// extension lives as a nullable sub-document keyed by the same id, so the
// role tag and its extension can never drift apart.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type customerDoc struct {
	Phone             string `bson:"phone,omitempty"`
	ShippingAddress   string `bson:"shipping_address,omitempty"`
	AssignedManagerID string `bson:"assigned_manager_id,omitempty"`
	AssignedAt        int64  `bson:"assigned_at,omitempty"`
}

type userDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Email         string             `bson:"email"`
	PasswordHash  string             `bson:"password_hash"`
	Role          string             `bson:"role"`
	IsActive      bool               `bson:"is_active"`
	IsVerified    bool               `bson:"is_verified"`
	CreatedBy     string             `bson:"created_by,omitempty"`
	CreatedAsRole string             `bson:"created_as_role,omitempty"`
	Customer      *customerDoc       `bson:"customer,omitempty"`
	CreatedAt     int64              `bson:"created_at"`
	UpdatedAt     int64              `bson:"updated_at"`
}

func toDoc(user *domain.User) userDoc {
	doc := userDoc{
		Email:         user.Email,
		PasswordHash:  user.PasswordHash,
		Role:          string(user.Role),
		IsActive:      user.IsActive,
		IsVerified:    user.IsVerified,
		CreatedBy:     user.CreatedBy,
		CreatedAsRole: string(user.CreatedAsRole),
		CreatedAt:     user.CreatedAt.Unix(),
		UpdatedAt:     user.UpdatedAt.Unix(),
	}
	if user.Customer != nil {
		doc.Customer = &customerDoc{
			Phone:             user.Customer.Phone,
			ShippingAddress:   user.Customer.ShippingAddress,
			AssignedManagerID: user.Customer.AssignedManagerID,
		}
		if !user.Customer.AssignedAt.IsZero() {
			doc.Customer.AssignedAt = user.Customer.AssignedAt.Unix()
		}
	}
	return doc
}

func fromDoc(doc *userDoc) *domain.User {
	user := &domain.User{
		ID:            doc.ID.Hex(),
		Email:         doc.Email,
		PasswordHash:  doc.PasswordHash,
		Role:          domain.Role(doc.Role),
		IsActive:      doc.IsActive,
		IsVerified:    doc.IsVerified,
		CreatedBy:     doc.CreatedBy,
		CreatedAsRole: domain.Role(doc.CreatedAsRole),
		CreatedAt:     unixToTime(doc.CreatedAt),
		UpdatedAt:     unixToTime(doc.UpdatedAt),
	}
	if doc.Customer != nil {
		user.Customer = &domain.CustomerDetails{
			Phone:             doc.Customer.Phone,
			ShippingAddress:   doc.Customer.ShippingAddress,
			AssignedManagerID: doc.Customer.AssignedManagerID,
			AssignedAt:        unixToTime(doc.Customer.AssignedAt),
		}
	}
	return user
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	res, err := r.coll.InsertOne(ctx, toDoc(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected inserted id type %T", res.InsertedID)
	}
	return r.FindByID(ctx, id.Hex())
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, bson.M{"email": email, "is_active": true}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return fromDoc(&doc), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDoc(&doc), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *UserRepository) ListByAssignedManager(ctx context.Context, managerID string) ([]*domain.User, error) {
	return r.find(ctx, bson.M{
		"role":                         string(domain.RoleCustomer),
		"customer.assigned_manager_id": managerID,
	})
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, fromDoc(&doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	doc := toDoc(user)
	set := bson.M{
		"role":        doc.Role,
		"is_verified": doc.IsVerified,
		"updated_at":  doc.UpdatedAt,
	}
	unset := bson.M{}
	if doc.Customer != nil {
		set["customer"] = doc.Customer
	} else {
		unset["customer"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, user.ID)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC().Unix(),
	}})
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Reassign updates the assignment fields in a single document write, so two
// concurrent reassignments race at the store's single-row atomicity and the
// last write wins whole.
func (r *UserRepository) Reassign(ctx context.Context, customerID, managerID string, at time.Time) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "role": string(domain.RoleCustomer)},
		bson.M{"$set": bson.M{
			"customer.assigned_manager_id": managerID,
			"customer.assigned_at":         at.Unix(),
			"updated_at":                   at.Unix(),
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("reassign customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, customerID)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
