package domain

// Product represents an item catalogued by the price registry
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Synthetic bool   `json:"is_synthetic"`
}

// ProductFilter narrows a product or price query. Empty fields are absent.
type ProductFilter struct {
	SearchTerm string `json:"search_term,omitempty"`
	ProductID  string `json:"product_id,omitempty"`
	Unit       string `json:"unit,omitempty"`
}
