package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
)

// NewGorm returns a Set backed by a relational database.
func NewGorm(db *gorm.DB) Set {
	return Set{
		Users:    &gormUsers{db: db},
		Products: &gormProducts{db: db},
		Carts:    &gormCarts{db: db},
	}
}

// AutoMigrate creates or updates the tables for every model.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("repositories: automigrate: %w", err)
	}
	return nil
}

// isDuplicate covers dialects whose driver does not translate errors.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// likePattern escapes LIKE metacharacters with '!' so the term matches literally.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, u *models.User) error {
	stampUser(u, time.Now())
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("repositories: insert user: %w", err)
	}
	return nil
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("repositories: find user: %w", err)
	}
	return u, nil
}

func (r *gormUsers) UpdateImage(ctx context.Context, email, image string) (models.User, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]any{"image": image, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.User{}, fmt.Errorf("repositories: update user image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return r.FindByEmail(ctx, email)
}

func (r *gormUsers) DeleteByEmail(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("repositories: delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormProducts struct {
	db *gorm.DB
}

func (r *gormProducts) Create(ctx context.Context, p *models.Product) error {
	stampProduct(p, time.Now())
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("repositories: insert product: %w", err)
	}
	return nil
}

func (r *gormProducts) FindByID(ctx context.Context, id string) (models.Product, error) {
	if !models.ValidID(id) {
		return models.Product{}, ErrNotFound
	}
	var p models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("repositories: find product: %w", err)
	}
	return p, nil
}

func (r *gormProducts) List(ctx context.Context, search string) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if search != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '!'", likePattern(search))
	}
	out := []models.Product{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("repositories: list products: %w", err)
	}
	return out, nil
}

func (r *gormProducts) FindBySellerPhone(ctx context.Context, phone string) ([]models.Product, error) {
	var out []models.Product
	if err := r.db.WithContext(ctx).Where("seller_phone = ?", phone).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("repositories: find products: %w", err)
	}
	return out, nil
}

func (r *gormProducts) DeleteByID(ctx context.Context, id string) error {
	if !models.ValidID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("repositories: delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormProducts) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Product{})
	if res.Error != nil {
		return 0, fmt.Errorf("repositories: delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type gormCarts struct {
	db *gorm.DB
}

func (r *gormCarts) Add(ctx context.Context, item *models.CartItem) error {
	stampCartItem(item, time.Now())
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("repositories: insert cart item: %w", err)
	}
	return nil
}

func (r *gormCarts) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	out := []models.CartItem{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: find cart: %w", err)
	}
	return out, nil
}

func (r *gormCarts) RemoveOne(ctx context.Context, userID, productID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.CartItem
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).
			Order("created_at ASC").Order("id ASC").
			First(&it).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("repositories: find cart item: %w", err)
		}
		if err := tx.Delete(&models.CartItem{}, "id = ?", it.ID).Error; err != nil {
			return fmt.Errorf("repositories: delete cart item: %w", err)
		}
		return nil
	})
}
