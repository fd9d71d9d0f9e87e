package main

import (
	"storefront-service/internal/models"

	"github.com/lib/pq"
)

type seedUser struct {
	name, email, password, role string
}

var seedUsers = []seedUser{
	{name: "Admin User", email: "admin@modernshop.com", password: "admin123", role: models.RoleAdmin},
	{name: "John Doe", email: "john@example.com", password: "password123", role: models.RoleUser},
	{name: "Jane Smith", email: "jane@example.com", password: "password123", role: models.RoleUser},
}

func sale(v float64) *float64 { return &v }

func image(id string) string {
	return "https://images.unsplash.com/photo-" + id + "?w=800&q=80"
}

var seedProducts = []models.Product{
	{
		SKU:         "IPHONE15PROMAX-001",
		Name:        "iPhone 15 Pro Max",
		Description: "The ultimate iPhone experience with the largest display, longest battery life, and most advanced camera system.",
		Price:       1199.99,
		SalePrice:   sale(1099.99),
		Images:      pq.StringArray{image("1592750475338-74b7b21085ab"), image("1511707171634-5f897ff02aa9")},
		Category:    models.CategoryElectronics,
		Brand:       "Apple",
		Stock:       25,
		Features:    pq.StringArray{"A17 Pro chip with 6-core GPU", "Pro camera system with 5x Telephoto", "USB-C with USB 3 support"},
		Specifications: models.Specifications{
			"Screen Size": "6.7 inches",
			"Storage":     "256GB",
			"OS":          "iOS 17",
		},
		IsFeatured: true,
		Tags:       pq.StringArray{"smartphone", "apple", "premium", "flagship"},
	},
	{
		SKU:         "MACBOOK-PRO-M3MAX-001",
		Name:        `MacBook Pro 16" M3 Max`,
		Description: "The most powerful MacBook Pro ever, built for professionals who push the limits of what's possible.",
		Price:       3499.99,
		SalePrice:   sale(3199.99),
		Images:      pq.StringArray{image("1517336714731-489689fd1ca8"), image("1496181133206-80ce9b88a853")},
		Category:    models.CategoryElectronics,
		Brand:       "Apple",
		Stock:       15,
		Features:    pq.StringArray{"M3 Max chip with 16-core CPU", "Liquid Retina XDR display", "Up to 22 hours battery life"},
		Specifications: models.Specifications{
			"Processor": "Apple M3 Max",
			"Memory":    "36GB unified memory",
			"Storage":   "1TB SSD",
		},
		IsFeatured: true,
		Tags:       pq.StringArray{"laptop", "apple", "professional"},
	},
	{
		SKU:         "SONY-WH1000XM5-001",
		Name:        "Sony WH-1000XM5 Headphones",
		Description: "Industry-leading noise cancellation with two processors controlling eight microphones.",
		Price:       399.99,
		SalePrice:   sale(349.99),
		Images:      pq.StringArray{image("1618366712010-f4ae9c647dcb")},
		Category:    models.CategoryElectronics,
		Brand:       "Sony",
		Stock:       75,
		Features:    pq.StringArray{"Industry-leading noise cancellation", "30-hour battery life", "Multipoint connection"},
		Specifications: models.Specifications{
			"Battery Life": "30 hours",
			"Weight":       "250g",
		},
		Tags: pq.StringArray{"headphones", "wireless", "noise-cancelling"},
	},
	{
		SKU:         "NIKE-AIRMAX270-001",
		Name:        "Nike Air Max 270",
		Description: "Nike's first lifestyle Air Max brings you style, comfort and big attitude.",
		Price:       150.00,
		SalePrice:   sale(120.00),
		Images:      pq.StringArray{image("1542291026-7eec264c27ff")},
		Category:    models.CategoryClothing,
		Brand:       "Nike",
		Stock:       100,
		Features:    pq.StringArray{"Max Air unit in the heel", "Breathable mesh upper"},
		Tags:        pq.StringArray{"shoes", "sneakers", "lifestyle"},
	},
	{
		SKU:         "SAMSUNG-55-4K-001",
		Name:        `Samsung 55" 4K Smart TV`,
		Description: "Crystal UHD 4K resolution with HDR and a smart platform for all your streaming apps.",
		Price:       799.99,
		SalePrice:   sale(699.99),
		Images:      pq.StringArray{image("1593359677879-a4bb92f829d1")},
		Category:    models.CategoryElectronics,
		Brand:       "Samsung",
		Stock:       25,
		Features:    pq.StringArray{"Crystal Processor 4K", "HDR10+ support", "Built-in voice assistants"},
		Specifications: models.Specifications{
			"Screen Size": "55 inches",
			"Resolution":  "3840 x 2160",
		},
		IsFeatured: true,
		Tags:       pq.StringArray{"tv", "4k", "smart-tv"},
	},
	{
		SKU:         "INSTANTPOT-DUO-001",
		Name:        "Instant Pot Duo 7-in-1",
		Description: "Pressure cooker, slow cooker, rice cooker, steamer, saute pan, yogurt maker and warmer in one.",
		Price:       99.99,
		SalePrice:   sale(79.99),
		Images:      pq.StringArray{image("1585515320310-259814833e62")},
		Category:    models.CategoryHomeGarden,
		Brand:       "Instant Pot",
		Stock:       60,
		Features:    pq.StringArray{"7 appliances in 1", "13 one-touch programs"},
		Tags:        pq.StringArray{"kitchen", "cooking", "appliance"},
	},
	{
		SKU:         "ADIDAS-UB22-001",
		Name:        "Adidas Ultraboost 22",
		Description: "Running shoes with responsive Boost cushioning and a Primeknit upper.",
		Price:       190.00,
		Images:      pq.StringArray{image("1608231387042-66d1773070a5")},
		Category:    models.CategorySports,
		Brand:       "Adidas",
		Stock:       80,
		Features:    pq.StringArray{"Boost midsole", "Primeknit+ upper", "Continental rubber outsole"},
		Tags:        pq.StringArray{"running", "shoes", "sports"},
	},
	{
		SKU:         "BOOK-PSYCHOLOGY-MONEY-001",
		Name:        "The Psychology of Money",
		Description: "Timeless lessons on wealth, greed and happiness by Morgan Housel.",
		Price:       16.99,
		SalePrice:   sale(12.99),
		Images:      pq.StringArray{image("1544947950-fa07a98d237f")},
		Category:    models.CategoryBooks,
		Brand:       "Harriman House",
		Stock:       200,
		Specifications: models.Specifications{
			"Author": "Morgan Housel",
			"Pages":  "256",
		},
		Tags: pq.StringArray{"finance", "bestseller", "psychology"},
	},
	{
		SKU:         "AIRPODS-PRO-3GEN-001",
		Name:        "AirPods Pro (3rd Generation)",
		Description: "Active noise cancellation, adaptive transparency and personalized spatial audio.",
		Price:       249.99,
		SalePrice:   sale(199.99),
		Images:      pq.StringArray{image("1600294037681-c80b4cb5b434")},
		Category:    models.CategoryElectronics,
		Brand:       "Apple",
		Stock:       85,
		Features:    pq.StringArray{"Active noise cancellation", "Personalized spatial audio", "MagSafe charging case"},
		IsFeatured:  true,
		Tags:        pq.StringArray{"earbuds", "apple", "wireless"},
	},
	{
		SKU:         "TESLA-WHEEL-PLAID-001",
		Name:        "Tesla Model S Plaid Wheel",
		Description: "Original yoke steering wheel replacement for the Model S Plaid.",
		Price:       4500.00,
		Images:      pq.StringArray{image("1617788138017-80ad40651399")},
		Category:    models.CategoryAutomotive,
		Brand:       "Tesla",
		Stock:       8,
		Tags:        pq.StringArray{"tesla", "automotive", "steering"},
	},
	{
		SKU:         "DYSON-V15-DETECT-001",
		Name:        "Dyson V15 Detect Absolute",
		Description: "Dyson's most powerful, intelligent cordless vacuum with laser dust detection.",
		Price:       749.99,
		SalePrice:   sale(649.99),
		Images:      pq.StringArray{image("1558618666-fcd25c85cd64")},
		Category:    models.CategoryHomeGarden,
		Brand:       "Dyson",
		Stock:       35,
		Features:    pq.StringArray{"Laser dust detection", "Up to 60 minutes run time"},
		IsFeatured:  true,
		Tags:        pq.StringArray{"vacuum", "cordless", "cleaning"},
	},
	{
		SKU:         "LULU-ALIGN-PANT-001",
		Name:        "Lululemon Align High-Rise Pant",
		Description: "Buttery-soft Nulu fabric yoga pants designed for a weightless feel.",
		Price:       128.00,
		SalePrice:   sale(98.00),
		Images:      pq.StringArray{image("1506629905607-d9c297d3f5f5")},
		Category:    models.CategoryClothing,
		Brand:       "Lululemon",
		Stock:       120,
		Tags:        pq.StringArray{"yoga", "activewear", "pants"},
	},
	{
		SKU:         "YETI-RAMBLER-30OZ-001",
		Name:        "YETI Rambler 30 oz Tumbler",
		Description: "Double-wall vacuum insulated stainless steel tumbler that keeps drinks cold or hot.",
		Price:       39.99,
		Images:      pq.StringArray{image("1523362628745-0c100150b504")},
		Category:    models.CategorySports,
		Brand:       "YETI",
		Stock:       200,
		Tags:        pq.StringArray{"drinkware", "outdoor", "insulated"},
	},
	{
		SKU:         "PATAGONIA-FLEECE-001",
		Name:        "Patagonia Better Sweater Fleece Jacket",
		Description: "Warm full-zip jacket made of 100% recycled polyester fleece.",
		Price:       139.00,
		SalePrice:   sale(109.00),
		Images:      pq.StringArray{image("1551698618-1dfe5d97d256")},
		Category:    models.CategoryClothing,
		Brand:       "Patagonia",
		Stock:       75,
		Features:    pq.StringArray{"Fair Trade Certified sewn", "Bluesign approved fabric"},
		Specifications: models.Specifications{
			"Material": "100% recycled polyester fleece",
			"Fit":      "Regular fit",
		},
		Tags: pq.StringArray{"fleece", "outdoor", "sustainable", "warm"},
	},
	{
		SKU:         "NINTENDO-SWITCH-OLED-001",
		Name:        "Nintendo Switch OLED Model",
		Description: "The enhanced Nintendo Switch experience with a vibrant 7-inch OLED screen and 64GB of storage.",
		Price:       349.99,
		Images:      pq.StringArray{image("1606144042614-b2417e99c4e3")},
		Category:    models.CategoryElectronics,
		Brand:       "Nintendo",
		Stock:       45,
		Features:    pq.StringArray{"7-inch OLED screen", "64GB internal storage", "Dock with wired LAN port"},
		Specifications: models.Specifications{
			"Screen":  "7-inch OLED multi-touch",
			"Battery": "4.5-9 hours",
		},
		IsFeatured: true,
		Tags:       pq.StringArray{"gaming", "console", "portable", "oled"},
	},
}
