package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/product-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"

	codeNamespaceExists           = 48
	codeDocumentValidationFailure = 121
)

type MongoRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// productDocument is the shape written on insert. Absent input fields are
// left out of the document so the collection validator can reject them.
type productDocument struct {
	ID                  primitive.ObjectID `bson:"_id"`
	domain.ProductInput `bson:",inline"`
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		db:         db,
		collection: db.Collection(productsCollection),
	}
}

func (m *MongoRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	cursor, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, storeError("query products", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, storeError("decode products", err)
	}

	return products, nil
}

func (m *MongoRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, storeError("get product", err)
	}

	return &product, nil
}

func (m *MongoRepository) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	doc := productDocument{ID: primitive.NewObjectID(), ProductInput: in}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return nil, storeError("create product", err)
	}

	product := &domain.Product{ID: doc.ID}
	in.Apply(product)
	return product, nil
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product domain.Product
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, replaceFields(in), opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, storeError("update product", err)
	}

	return &product, nil
}

func (m *MongoRepository) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	err = m.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, storeError("delete product", err)
	}

	return &product, nil
}

// EnsureSchema installs the collection validator that requires name and
// price. An existing collection gets the validator through collMod.
func (m *MongoRepository) EnsureSchema(ctx context.Context) error {
	validator := bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "price"},
			"properties": bson.M{
				"name":        bson.M{"bsonType": "string"},
				"description": bson.M{"bsonType": "string"},
				"price":       bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}},
			},
		},
	}

	err := m.db.CreateCollection(ctx, productsCollection, options.CreateCollection().SetValidator(validator))
	if err == nil {
		return nil
	}

	var se mongo.ServerError
	if !errors.As(err, &se) || !se.HasErrorCode(codeNamespaceExists) {
		return fmt.Errorf("failed to create products collection: %w", err)
	}

	cmd := bson.D{
		{Key: "collMod", Value: productsCollection},
		{Key: "validator", Value: validator},
	}
	if err := m.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to update products validator: %w", err)
	}

	return nil
}

// replaceFields builds an update that sets present fields and unsets absent
// ones, so all three fields are replaced.
func replaceFields(in domain.ProductInput) bson.M {
	set := bson.M{}
	unset := bson.M{}

	if in.Name != nil {
		set["name"] = *in.Name
	} else {
		unset["name"] = ""
	}
	if in.Description != nil {
		set["description"] = *in.Description
	} else {
		unset["description"] = ""
	}
	if in.Price != nil {
		set["price"] = *in.Price
	} else {
		unset["price"] = ""
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q: %w", ErrInvalidID, id, err)
	}
	return oid, nil
}

func storeError(action string, err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeDocumentValidationFailure) {
		return fmt.Errorf("failed to %s: %w: %w", action, ErrMissingField, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
