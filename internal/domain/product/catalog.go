package product

import "github.com/shopspring/decimal"

// DefaultCatalog is the product set used by the in-memory backend and the
// seed command when no products file is given.
func DefaultCatalog() []Product {
	return []Product{
		{
			ID: "p-101", Name: "Cotton Kurta", Category: "apparel",
			Description: "Hand-block printed cotton kurta.",
			Price:       decimal.RequireFromString("799.00"),
			Image:       defaultImage("cotton-kurta"),
		},
		{
			ID: "p-102", Name: "Denim Jacket", Category: "apparel",
			Description: "Stone-washed denim jacket.",
			Price:       decimal.RequireFromString("1899.00"),
			Image:       defaultImage("denim-jacket"),
		},
		{
			ID: "p-201", Name: "Wireless Earbuds", Category: "electronics",
			Description: "Bluetooth 5.3 earbuds with charging case.",
			Price:       decimal.RequireFromString("2499.00"),
			Image:       defaultImage("wireless-earbuds"),
		},
		{
			ID: "p-202", Name: "USB-C Cable", Category: "electronics",
			Description: "1m braided USB-C to USB-C cable.",
			Price:       decimal.RequireFromString("249.00"),
			Image:       defaultImage("usb-c-cable"),
		},
		{
			ID: "p-301", Name: "Ceramic Mug", Category: "home",
			Description: "350ml glazed ceramic mug.",
			Price:       decimal.RequireFromString("349.50"),
			Image:       defaultImage("ceramic-mug"),
		},
		{
			ID: "p-302", Name: "Scented Candle", Category: "home",
			Description: "Soy wax candle, sandalwood.",
			Price:       decimal.RequireFromString("499.00"),
			Image:       defaultImage("scented-candle"),
		},
	}
}

func defaultImage(slug string) Image {
	return Image{
		Thumbnail: "/images/" + slug + "-thumbnail.jpg",
		Mobile:    "/images/" + slug + "-mobile.jpg",
		Tablet:    "/images/" + slug + "-tablet.jpg",
		Desktop:   "/images/" + slug + "-desktop.jpg",
	}
}
