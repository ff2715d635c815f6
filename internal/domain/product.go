package domain

import "time"

// Product is a catalog entry. Price is in whole đồng.
type Product struct {
	ID          string                 `json:"id"`
	SKU         string                 `json:"sku"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Price       int64                  `json:"price"`
	Stock       int                    `json:"stock"`
	Category    string                 `json:"category"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Images returns the image URLs stored in the product attributes.
func (p Product) Images() []string {
	raw, ok := p.Attributes["images"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
