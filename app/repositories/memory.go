package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/app/models"
)

// NewMemory returns a process-local Set for development and tests.
func NewMemory() Set {
	return Set{
		Users:    &memoryUsers{byEmail: map[string]models.User{}},
		Products: &memoryProducts{},
		Carts:    &memoryCarts{},
	}
}

type memoryUsers struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

func (r *memoryUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return ErrDuplicate
	}
	stampUser(u, time.Now())
	r.byEmail[u.Email] = *u
	return nil
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryUsers) UpdateImage(_ context.Context, email, image string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	u.Image = image
	u.UpdatedAt = time.Now().UTC()
	r.byEmail[email] = u
	return u, nil
}

func (r *memoryUsers) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; !ok {
		return ErrNotFound
	}
	delete(r.byEmail, email)
	return nil
}

type memoryProducts struct {
	mu    sync.RWMutex
	items []models.Product // insertion order
}

func (r *memoryProducts) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stampProduct(p, time.Now())
	r.items = append(r.items, *p)
	return nil
}

func (r *memoryProducts) FindByID(_ context.Context, id string) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}

func (r *memoryProducts) List(_ context.Context, search string) ([]models.Product, error) {
	r.mu.RLock()
	needle := strings.ToLower(search)
	out := make([]models.Product, 0, len(r.items))
	for i := len(r.items) - 1; i >= 0; i-- {
		p := r.items[i]
		if needle == "" || strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	// Reverse insertion order already breaks ties newest first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryProducts) FindBySellerPhone(_ context.Context, phone string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Product
	for _, p := range r.items {
		if p.SellerPhone == phone {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryProducts) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.items {
		if p.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryProducts) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := r.items[:0]
	var n int64
	for _, p := range r.items {
		if _, ok := drop[p.ID]; ok {
			n++
			continue
		}
		kept = append(kept, p)
	}
	r.items = kept
	return n, nil
}

type memoryCarts struct {
	mu    sync.RWMutex
	items []models.CartItem
}

func (r *memoryCarts) Add(_ context.Context, item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stampCartItem(item, time.Now())
	r.items = append(r.items, *item)
	return nil
}

func (r *memoryCarts) ListByUser(_ context.Context, userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.CartItem{}
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memoryCarts) RemoveOne(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, it := range r.items {
		if it.UserID == userID && it.ProductID == productID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func stampUser(u *models.User, now time.Time) {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now.UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
}

func stampProduct(p *models.Product, now time.Time) {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now.UTC()
	}
}

func stampCartItem(it *models.CartItem, now time.Time) {
	if it.ID == "" {
		it.ID = models.NewID()
	}
	if it.Quantity == 0 {
		it.Quantity = 1
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now.UTC()
	}
}
