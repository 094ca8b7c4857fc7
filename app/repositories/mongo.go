package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/bazaar/app/models"
)

// Collection names.
const (
	UsersCollection    = "users"
	ProductsCollection = "products"
	CartsCollection    = "carts"
)

// NewMongo returns a Set backed by db.
func NewMongo(db *mongo.Database) Set {
	return Set{
		Users:    &mongoUsers{col: db.Collection(UsersCollection)},
		Products: &mongoProducts{col: db.Collection(ProductsCollection)},
		Carts:    &mongoCarts{col: db.Collection(CartsCollection)},
	}
}

// EnsureMongoIndexes creates the unique email index and the lookup
// indexes used by listing, cascade and cart queries.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "sellerPhone", Value: 1}}},
		},
		CartsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}},
		},
	}
	for name, idx := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("repositories: index %s: %w", name, err)
		}
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func newObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, ok := objectID(id)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("repositories: malformed id %q", id)
	}
	return oid, nil
}

// ── users ────────────────────────────────────────────────────────────────────

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	FullName  string             `bson:"fullname"`
	Email     string             `bson:"email"`
	Mobile    string             `bson:"mobile"`
	Location  string             `bson:"location"`
	Password  string             `bson:"password"`
	Image     string             `bson:"image"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) model() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		FullName:  d.FullName,
		Email:     d.Email,
		Mobile:    d.Mobile,
		Location:  d.Location,
		Password:  d.Password,
		Image:     d.Image,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	stampUser(u, time.Now())
	oid, err := newObjectID(u.ID)
	if err != nil {
		return err
	}
	doc := userDoc{
		ID:        oid,
		FullName:  u.FullName,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Location:  u.Location,
		Password:  u.Password,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("repositories: insert user: %w", err)
	}
	return nil
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("repositories: find user: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoUsers) UpdateImage(ctx context.Context, email, image string) (models.User, error) {
	var doc userDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"image": image, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("repositories: update user image: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoUsers) DeleteByEmail(ctx context.Context, email string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return fmt.Errorf("repositories: delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ── products ─────────────────────────────────────────────────────────────────

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Condition   string             `bson:"condition"`
	Location    string             `bson:"location"`
	SellerPhone string             `bson:"sellerPhone"`
	Image       string             `bson:"image"`
	CreatedAt   time.Time          `bson:"createdAt"`
	Likes       int                `bson:"likes"`
}

func (d productDoc) model() models.Product {
	return models.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		Condition:   d.Condition,
		Location:    d.Location,
		SellerPhone: d.SellerPhone,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		Likes:       d.Likes,
	}
}

type mongoProducts struct {
	col *mongo.Collection
}

func (r *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	stampProduct(p, time.Now())
	oid, err := newObjectID(p.ID)
	if err != nil {
		return err
	}
	doc := productDoc{
		ID:          oid,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Condition:   p.Condition,
		Location:    p.Location,
		SellerPhone: p.SellerPhone,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		Likes:       p.Likes,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("repositories: insert product: %w", err)
	}
	return nil
}

func (r *mongoProducts) FindByID(ctx context.Context, id string) (models.Product, error) {
	oid, ok := objectID(id)
	if !ok {
		return models.Product{}, ErrNotFound
	}
	var doc productDoc
	err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("repositories: find product: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoProducts) List(ctx context.Context, search string) ([]models.Product, error) {
	filter := bson.M{}
	if search != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoProducts) FindBySellerPhone(ctx context.Context, phone string) ([]models.Product, error) {
	return r.find(ctx, bson.M{"sellerPhone": phone}, options.Find())
}

func (r *mongoProducts) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("repositories: find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repositories: decode products: %w", err)
	}
	out := make([]models.Product, len(docs))
	for i, d := range docs {
		out[i] = d.model()
	}
	return out, nil
}

func (r *mongoProducts) DeleteByID(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("repositories: delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return 0, nil
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("repositories: delete products: %w", err)
	}
	return res.DeletedCount, nil
}

// ── carts ────────────────────────────────────────────────────────────────────

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	ProductID string             `bson:"productId"`
	Quantity  int                `bson:"quantity"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d cartDoc) model() models.CartItem {
	return models.CartItem{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
	}
}

type mongoCarts struct {
	col *mongo.Collection
}

func (r *mongoCarts) Add(ctx context.Context, item *models.CartItem) error {
	stampCartItem(item, time.Now())
	oid, err := newObjectID(item.ID)
	if err != nil {
		return err
	}
	doc := cartDoc{
		ID:        oid,
		UserID:    item.UserID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("repositories: insert cart item: %w", err)
	}
	return nil
}

func (r *mongoCarts) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("repositories: find cart: %w", err)
	}
	var docs []cartDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repositories: decode cart: %w", err)
	}
	out := make([]models.CartItem, len(docs))
	for i, d := range docs {
		out[i] = d.model()
	}
	return out, nil
}

func (r *mongoCarts) RemoveOne(ctx context.Context, userID, productID string) error {
	err := r.col.FindOneAndDelete(ctx,
		bson.M{"userId": userID, "productId": productID},
		options.FindOneAndDelete().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("repositories: delete cart item: %w", err)
	}
	return nil
}
