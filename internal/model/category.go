package model

// Category is the fixed set of task categories. Badge definitions are keyed
// by the same values.
type Category string

const (
	CategoryCleaning    Category = "cleaning"
	CategoryCooking     Category = "cooking"
	CategoryMaintenance Category = "maintenance"
	CategoryOutdoor     Category = "outdoor"
	CategoryShopping    Category = "shopping"
	CategoryLaundry     Category = "laundry"
	CategoryDishes      Category = "dishes"
	CategoryPets        Category = "pets"
	CategoryChildcare   Category = "childcare"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCleaning,
	CategoryCooking,
	CategoryMaintenance,
	CategoryOutdoor,
	CategoryShopping,
	CategoryLaundry,
	CategoryDishes,
	CategoryPets,
	CategoryChildcare,
}

var categoryLabels = map[Category]string{
	CategoryCleaning:    "Cleaning",
	CategoryCooking:     "Cooking",
	CategoryMaintenance: "Maintenance",
	CategoryOutdoor:     "Outdoor",
	CategoryShopping:    "Shopping",
	CategoryLaundry:     "Laundry",
	CategoryDishes:      "Dishes",
	CategoryPets:        "Pets",
	CategoryChildcare:   "Childcare",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// CategoryValues returns the categories as strings, for validation rules.
func CategoryValues() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}
