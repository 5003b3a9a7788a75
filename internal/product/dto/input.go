package dto

import (
	"errors"
	"net/url"
	"strings"
)

type MergeProductsInput struct {
	KeepID int64  `json:"keep_id"`
	DropID int64  `json:"drop_id"`
	Actor  string `json:"actor,omitempty"`
}

func (in *MergeProductsInput) Validate() error {
	if in.KeepID <= 0 || in.DropID <= 0 {
		return errors.New("keep_id and drop_id are required")
	}
	if in.KeepID == in.DropID {
		return errors.New("cannot merge a product into itself")
	}
	return nil
}

type SetShopURLInput struct {
	ProductID int64  `json:"product_id"`
	ShopID    int64  `json:"shop_id"`
	URL       string `json:"url"`
	Actor     string `json:"actor,omitempty"`
}

// Validate accepts an absolute http(s) URL or a bare retailer reference such
// as a sku id.
func (in *SetShopURLInput) Validate() error {
	if in.ProductID <= 0 || in.ShopID <= 0 {
		return errors.New("product_id and shop_id are required")
	}
	in.URL = strings.TrimSpace(in.URL)
	if in.URL == "" {
		return errors.New("url is required")
	}
	if strings.Contains(in.URL, "://") {
		u, err := url.Parse(in.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("url must be an absolute http(s) URL or a retailer reference")
		}
	}
	return nil
}
