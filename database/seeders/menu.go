package seeders

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
)

func init() {
	Register("menu", SeedMenu)
}

type seedItem struct {
	name, price, category, image, description string
}

var menu = []seedItem{
	{"Barbacoa", "9.00", models.CategoryBurger, "barbacoa", "Delicious barbecue burger"},
	{"Andalu", "7.00", models.CategoryBurger, "andalu", "Andalusian style burger"},
	{"Cheeseburger", "9.00", models.CategoryBurger, "cheeseburger", "Classic cheeseburger"},
	{"Pimento", "8.50", models.CategoryBurger, "pimento", "Pimento cheese burger"},
	{"Oklahoma 2.0", "10.00", models.CategoryBurger, "oklahoma", "Oklahoma style burger"},
	{"El pollo", "8.00", models.CategoryBurger, "el_pollo", "Chicken burger"},
	{"Pollo kimchi", "10.00", models.CategoryBurger, "pollo_kimchi", "Chicken kimchi burger"},
	{"Pollo sucio", "12.50", models.CategoryBurger, "pollo_sucio", "Dirty chicken burger"},

	{"Bacon jam fries", "5.00", models.CategorySide, "bacon_jam_fries", "Fries with bacon jam"},
	{"Chilli cheese fries", "5.00", models.CategorySide, "chilli_cheese_fries", "Fries with chili and cheese"},
	{"Shop string fries", "2.20", models.CategorySide, "shop_string_fries", "Thin cut fries"},

	{"Coca cola", "1.10", models.CategoryDrink, "coca_cola", "Classic Coca-Cola"},
	{"Coke 00", "1.10", models.CategoryDrink, "coke_00", "Sugar-free Coca-Cola"},
	{"Fanta orange", "1.10", models.CategoryDrink, "fanta_orange", "Orange Fanta"},
	{"Fanta lemon", "1.10", models.CategoryDrink, "fanta_lemon", "Lemon Fanta"},
	{"Sprite", "1.10", models.CategoryDrink, "sprite", "Sprite"},
	{"Aquarius", "1.10", models.CategoryDrink, "aquarius", "Aquarius sports drink"},
	{"Aquarius orange", "1.10", models.CategoryDrink, "aquarius_orange", "Orange flavored Aquarius"},
	{"Nestlé ice tea normal", "1.10", models.CategoryDrink, "nestle_ice_tea", "Nestlé Ice Tea"},
	{"Nestlé lemon", "1.10", models.CategoryDrink, "nestle_lemon", "Nestlé Lemon Tea"},
	{"Fanta Nestlé passion fruit", "1.10", models.CategoryDrink, "fanta_nestle_passion_fruit", "Nestlé Passion Fruit Fanta"},
}

// SeedMenu inserts the house menu. Items are matched by name, so existing
// rows (including admin edits) are left alone.
func SeedMenu(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range menu {
			item := models.MenuItem{
				Name:        s.name,
				Description: s.description,
				Price:       decimal.RequireFromString(s.price),
				Category:    s.category,
				ImageURL:    "/images/" + s.image + ".jpg",
				IsAvailable: true,
			}
			if err := tx.Where("name = ?", s.name).FirstOrCreate(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
