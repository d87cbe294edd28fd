package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

const collectionRequests = "pickup_requests"

// RequestRepository implements ports.RequestRepository on the
// pickup_requests collection.
type RequestRepository struct {
	coll *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{coll: db.Collection(collectionRequests)}
}

type requestDocument struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	UserID        *primitive.ObjectID `bson:"user_id,omitempty"`
	MaterialType  string              `bson:"material_type"`
	Quantity      string              `bson:"quantity"`
	PickupAddress string              `bson:"pickup_address"`
	Status        string              `bson:"status"`
	UpdatedBy     *primitive.ObjectID `bson:"updated_by,omitempty"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`

	// Filled by the $lookup stages only.
	UserName      string `bson:"user_name,omitempty"`
	UpdatedByName string `bson:"updated_by_name,omitempty"`
}

func (d *requestDocument) toDomain() *domain.PickupRequest {
	r := &domain.PickupRequest{
		ID:            d.ID.Hex(),
		MaterialType:  domain.MaterialType(d.MaterialType),
		Quantity:      d.Quantity,
		PickupAddress: d.PickupAddress,
		Status:        domain.RequestStatus(d.Status),
		UserName:      d.UserName,
		UpdatedByName: d.UpdatedByName,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.UserID != nil {
		r.UserID = d.UserID.Hex()
	}
	if d.UpdatedBy != nil {
		r.UpdatedBy = d.UpdatedBy.Hex()
	}
	return r
}

// optionalID converts a possibly empty hex id into a nullable ObjectID.
func optionalID(id string) (*primitive.ObjectID, error) {
	if id == "" {
		return nil, nil
	}
	oid, ok := objectID(id)
	if !ok {
		return nil, fmt.Errorf("invalid user id %q", id)
	}
	return &oid, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.PickupRequest) error {
	owner, err := optionalID(req.UserID)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := requestDocument{
		UserID:        owner,
		MaterialType:  string(req.MaterialType),
		Quantity:      req.Quantity,
		PickupAddress: req.PickupAddress,
		Status:        string(req.Status),
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert request: unexpected id type %T", res.InsertedID)
	}
	req.ID = oid.Hex()
	return nil
}

func (r *RequestRepository) Get(ctx context.Context, id string, withNames bool) (*domain.PickupRequest, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrRequestNotFound
	}

	found, err := r.aggregate(ctx, bson.M{"_id": oid}, withNames)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if len(found) == 0 {
		return nil, domain.ErrRequestNotFound
	}
	return found[0], nil
}

func (r *RequestRepository) List(ctx context.Context, f ports.ListRequestsFilter) ([]*domain.PickupRequest, error) {
	match := bson.M{}
	if f.UserID != "" {
		oid, ok := objectID(f.UserID)
		if !ok {
			return nil, domain.Validation(fmt.Sprintf("invalid userId %q", f.UserID))
		}
		match["user_id"] = oid
	}
	if f.Status != "" {
		match["status"] = string(f.Status)
	}

	found, err := r.aggregate(ctx, match, f.WithNames)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return found, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, change ports.StatusChange) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrRequestNotFound
	}
	updater, err := optionalID(change.UpdatedBy)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"status":     string(change.Status),
		"updated_at": change.UpdatedAt,
	}
	if updater != nil {
		set["updated_by"] = *updater
	}

	filter := bson.M{"_id": oid}
	if len(change.From) > 0 {
		from := make([]string, len(change.From))
		for i, st := range change.From {
			from[i] = string(st)
		}
		filter["status"] = bson.M{"$in": from}
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrRequestNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes backing the newest-first list queries.
func (r *RequestRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// aggregate runs match -> sort newest first -> optional name joins.
func (r *RequestRepository) aggregate(ctx context.Context, match bson.M, withNames bool) ([]*domain.PickupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if withNames {
		pipeline = append(pipeline, nameLookupStages()...)
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*domain.PickupRequest, 0)
	for cur.Next(ctx) {
		var doc requestDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode request: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// nameLookupStages joins the owner and updater display names. Dangling
// references resolve to no name.
func nameLookupStages() mongo.Pipeline {
	lookup := func(local, as string) bson.D {
		return bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionUsers},
			{Key: "localField", Value: local},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
		}}}
	}
	firstName := func(field string) bson.D {
		return bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + field + ".name", 0}}}
	}

	return mongo.Pipeline{
		lookup("user_id", "owner"),
		lookup("updated_by", "updater"),
		{{Key: "$addFields", Value: bson.D{
			{Key: "user_name", Value: firstName("owner")},
			{Key: "updated_by_name", Value: firstName("updater")},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "owner", Value: 0},
			{Key: "updater", Value: 0},
		}}},
	}
}
