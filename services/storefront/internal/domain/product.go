package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry as the storefront API serves it. Different API
// versions have used "_id" or "id" for the identifier and "finalPrice" or
// "price" (plus discount fields) for the selling price, so all are accepted.
type Product struct {
	MongoID          string     `json:"_id,omitempty"`
	ID               string     `json:"id,omitempty"`
	Name             string     `json:"name"`
	Price            *float64   `json:"price,omitempty"`
	FinalPrice       *float64   `json:"finalPrice,omitempty"`
	Discount         float64    `json:"discount,omitempty"`
	IsDiscountActive bool       `json:"isDiscountActive,omitempty"`
	DiscountExpiry   *time.Time `json:"discountExpiry,omitempty"`
	Images           []string   `json:"images,omitempty"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	Image            string     `json:"image,omitempty"`
	Category         string     `json:"category,omitempty"`
}

// ResolveProductID returns the canonical identifier: "_id" when present,
// otherwise "id".
func (p Product) ResolveProductID() (string, error) {
	if id := strings.TrimSpace(p.MongoID); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(p.ID); id != "" {
		return id, nil
	}
	return "", ErrMissingProductID
}

// EffectivePrice returns the price a shopper pays at now. An explicit
// finalPrice wins; otherwise an active, unexpired discount is applied to price.
func (p Product) EffectivePrice(now time.Time) (Money, error) {
	var price Money
	switch {
	case p.FinalPrice != nil:
		price = MoneyFromRupees(*p.FinalPrice)
	case p.Price != nil:
		price = MoneyFromRupees(*p.Price)
		if p.discountApplies(now) {
			price -= MoneyFromRupees(*p.Price * p.Discount / 100)
		}
	default:
		return 0, ErrMissingPrice
	}
	if price < 0 {
		return 0, ErrNegativePrice
	}
	return price, nil
}

func (p Product) discountApplies(now time.Time) bool {
	if !p.IsDiscountActive || p.Discount <= 0 || p.Discount > 100 {
		return false
	}
	return p.DiscountExpiry == nil || now.Before(*p.DiscountExpiry)
}

// ImageRef picks the first available image reference.
func (p Product) ImageRef() string {
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			return img
		}
	}
	if p.ImageURL != "" {
		return p.ImageURL
	}
	return p.Image
}

// CartProduct is a product that has been accepted for the cart: it has a
// canonical id and a captured unit price. It can only be built through
// NewCartProduct, so a product without an id never reaches the cart.
type CartProduct struct {
	id        string
	name      string
	unitPrice Money
	imageRef  string
	category  string
}

// NewCartProduct normalises p at time now.
func NewCartProduct(p Product, now time.Time) (CartProduct, error) {
	id, err := p.ResolveProductID()
	if err != nil {
		return CartProduct{}, err
	}
	price, err := p.EffectivePrice(now)
	if err != nil {
		return CartProduct{}, err
	}
	return CartProduct{
		id:        id,
		name:      strings.TrimSpace(p.Name),
		unitPrice: price,
		imageRef:  p.ImageRef(),
		category:  p.Category,
	}, nil
}

// ID returns the canonical product id.
func (c CartProduct) ID() string { return c.id }

// UnitPrice returns the captured price.
func (c CartProduct) UnitPrice() Money { return c.unitPrice }
