package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/services"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type CartController struct {
	cart *services.CartService
}

func NewCartController(cart *services.CartService) *CartController {
	return &CartController{cart: cart}
}

type addToCartRequest struct {
	UserID    string `json:"userId"    validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

// Store handles POST /api/cart.
func (cc *CartController) Store(c *appctx.Context) {
	var req addToCartRequest
	if !c.BindJSON(&req) {
		return
	}

	item, err := cc.cart.Add(c.Context(), services.AddToCartInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		fail(c, err, internalError)
		return
	}

	c.JSON(http.StatusCreated, map[string]any{
		"message": "Product added to cart successfully",
		"cart":    []models.CartItem{item},
	})
}

// Index handles GET /api/cart?email=.
func (cc *CartController) Index(c *appctx.Context) {
	lines, err := cc.cart.List(c.Context(), c.Query("email"))
	if err != nil {
		fail(c, err, internalError)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// Destroy handles DELETE /api/cart?email=&productId=.
func (cc *CartController) Destroy(c *appctx.Context) {
	if err := cc.cart.Remove(c.Context(), c.Query("email"), c.Query("productId")); err != nil {
		fail(c, err, internalError)
		return
	}
	c.Message(http.StatusOK, "Product removed from cart")
}
