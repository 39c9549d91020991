package glowscan

import (
	"fmt"
	"strings"
)

// ProductType is the product category the ingredients belong to. The remote
// service uses it to frame the analysis.
type ProductType string

const (
	Moisturizer ProductType = "moisturizer"
	Cleanser    ProductType = "cleanser"
	Serum       ProductType = "serum"
	Toner       ProductType = "toner"
	Sunscreen   ProductType = "sunscreen"
	FaceMask    ProductType = "face mask"
	EyeCream    ProductType = "eye cream"
	BodyLotion  ProductType = "body lotion"
	Shampoo     ProductType = "shampoo"
	Conditioner ProductType = "conditioner"
	HairOil     ProductType = "hair oil"
)

// DefaultProductType is the initial selection of a new page.
const DefaultProductType = Moisturizer

var productTypes = []ProductType{
	Moisturizer,
	Cleanser,
	Serum,
	Toner,
	Sunscreen,
	FaceMask,
	EyeCream,
	BodyLotion,
	Shampoo,
	Conditioner,
	HairOil,
}

// ProductTypes returns all selectable product types in display order.
func ProductTypes() []ProductType {
	out := make([]ProductType, len(productTypes))
	copy(out, productTypes)
	return out
}

// ParseProductType matches s against the known product types, ignoring case
// and surrounding whitespace.
func ParseProductType(s string) (ProductType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, pt := range productTypes {
		if string(pt) == s {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown product type %q", s)
}

// Label returns the product type with its first letter capitalized.
func (p ProductType) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}
