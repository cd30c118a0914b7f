package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

// CollectionPilotProducts holds the pilot product write model.
const CollectionPilotProducts = "pilot_products"

// Compile-time interface check.
var _ pilot.Repository = (*PilotProductRepository)(nil)

// PilotProductRepository implements pilot.Repository with optimistic
// versioning on update.
type PilotProductRepository struct {
	coll *mongo.Collection
}

func NewPilotProductRepository(db *mongo.Database) *PilotProductRepository {
	return &PilotProductRepository{coll: db.Collection(CollectionPilotProducts)}
}

// Save inserts p with version 1.
func (r *PilotProductRepository) Save(ctx context.Context, p pilot.Product) (pilot.Product, error) {
	p.Version = 1
	if _, err := r.coll.InsertOne(ctx, toDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pilot.Product{}, errors.Wrapf(err, "product %s already exists", p.ID)
		}
		return pilot.Product{}, errors.Wrap(err, "insert pilot product")
	}
	return p, nil
}

func (r *PilotProductRepository) FindByID(ctx context.Context, id pilot.ProductID) (pilot.Product, error) {
	var doc productDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return pilot.Product{}, pilot.ErrNotFound
		}
		return pilot.Product{}, errors.Wrap(err, "find pilot product")
	}
	p, err := doc.toProduct()
	if err != nil {
		return pilot.Product{}, errors.Wrapf(err, "decode pilot product %s", id)
	}
	return p, nil
}

// Update replaces the document when its stored version still equals
// p.Version, then returns p with the next version.
func (r *PilotProductRepository) Update(ctx context.Context, p pilot.Product) (pilot.Product, error) {
	next := p
	next.Version = p.Version + 1

	filter := bson.M{"_id": p.ID.String(), "version": p.Version}
	res, err := r.coll.ReplaceOne(ctx, filter, toDocument(next))
	if err != nil {
		return pilot.Product{}, errors.Wrap(err, "replace pilot product")
	}
	if res.MatchedCount == 1 {
		return next, nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": p.ID.String()})
	if err != nil {
		return pilot.Product{}, errors.Wrap(err, "count pilot product")
	}
	if n == 0 {
		return pilot.Product{}, pilot.ErrNotFound
	}
	return pilot.Product{}, pilot.ErrVersionConflict
}
