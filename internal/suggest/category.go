package suggest

import (
	"strings"

	"github.com/dukerupert/chorequest/internal/model"
)

// Category guesses a task category from its name. Matching is
// case-insensitive: exact names first, then keyword substrings. The second
// return value is false when nothing matched.
func Category(taskName string) (model.Category, bool) {
	name := strings.ToLower(strings.Join(strings.Fields(taskName), " "))
	if name == "" {
		return "", false
	}

	if cat, ok := exactMatch[name]; ok {
		return cat, true
	}

	// longer, more specific keywords come first
	for _, entry := range keywordMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category, true
		}
	}

	return "", false
}

var exactMatch = map[string]model.Category{
	"vacuum":        model.CategoryCleaning,
	"vacuuming":     model.CategoryCleaning,
	"dust":          model.CategoryCleaning,
	"dusting":       model.CategoryCleaning,
	"mop":           model.CategoryCleaning,
	"mopping":       model.CategoryCleaning,
	"sweep":         model.CategoryCleaning,
	"tidy up":       model.CategoryCleaning,
	"cook dinner":   model.CategoryCooking,
	"make dinner":   model.CategoryCooking,
	"make lunch":    model.CategoryCooking,
	"meal prep":     model.CategoryCooking,
	"groceries":     model.CategoryShopping,
	"grocery run":   model.CategoryShopping,
	"errands":       model.CategoryShopping,
	"laundry":       model.CategoryLaundry,
	"fold clothes":  model.CategoryLaundry,
	"ironing":       model.CategoryLaundry,
	"dishes":        model.CategoryDishes,
	"do the dishes": model.CategoryDishes,
	"mow the lawn":  model.CategoryOutdoor,
	"mow lawn":      model.CategoryOutdoor,
	"weeding":       model.CategoryOutdoor,
	"walk the dog":  model.CategoryPets,
	"feed the cat":  model.CategoryPets,
	"school run":    model.CategoryChildcare,
	"bath time":     model.CategoryChildcare,
	"bedtime":       model.CategoryChildcare,
}

var keywordMatches = []struct {
	keyword  string
	category model.Category
}{
	// Dishes
	{"dishwasher", model.CategoryDishes},
	{"wash up", model.CategoryDishes},
	{"dish", model.CategoryDishes},
	{"pots and pans", model.CategoryDishes},

	// Laundry
	{"washing machine", model.CategoryLaundry},
	{"laundry", model.CategoryLaundry},
	{"fold", model.CategoryLaundry},
	{"iron", model.CategoryLaundry},
	{"bed sheets", model.CategoryLaundry},
	{"towels", model.CategoryLaundry},

	// Pets
	{"litter box", model.CategoryPets},
	{"litter", model.CategoryPets},
	{"dog", model.CategoryPets},
	{"cat", model.CategoryPets},
	{"fish tank", model.CategoryPets},
	{"hamster", model.CategoryPets},
	{"pet", model.CategoryPets},

	// Childcare
	{"homework", model.CategoryChildcare},
	{"diaper", model.CategoryChildcare},
	{"nappy", model.CategoryChildcare},
	{"kids", model.CategoryChildcare},
	{"baby", model.CategoryChildcare},
	{"school", model.CategoryChildcare},

	// Outdoor
	{"lawn", model.CategoryOutdoor},
	{"garden", model.CategoryOutdoor},
	{"weed", model.CategoryOutdoor},
	{"leaves", model.CategoryOutdoor},
	{"hedge", model.CategoryOutdoor},
	{"snow", model.CategoryOutdoor},
	{"yard", model.CategoryOutdoor},
	{"patio", model.CategoryOutdoor},
	{"water the plants", model.CategoryOutdoor},

	// Maintenance
	{"light bulb", model.CategoryMaintenance},
	{"smoke alarm", model.CategoryMaintenance},
	{"air filter", model.CategoryMaintenance},
	{"gutter", model.CategoryMaintenance},
	{"repair", model.CategoryMaintenance},
	{"fix", model.CategoryMaintenance},
	{"leak", model.CategoryMaintenance},
	{"paint", model.CategoryMaintenance},
	{"assemble", model.CategoryMaintenance},
	{"replace", model.CategoryMaintenance},

	// Shopping
	{"grocer", model.CategoryShopping},
	{"shopping", model.CategoryShopping},
	{"pick up", model.CategoryShopping},
	{"buy", model.CategoryShopping},
	{"pharmacy", model.CategoryShopping},
	{"store", model.CategoryShopping},

	// Cooking
	{"breakfast", model.CategoryCooking},
	{"lunch", model.CategoryCooking},
	{"dinner", model.CategoryCooking},
	{"cook", model.CategoryCooking},
	{"bake", model.CategoryCooking},
	{"meal", model.CategoryCooking},

	// Cleaning
	{"bathroom", model.CategoryCleaning},
	{"toilet", model.CategoryCleaning},
	{"kitchen", model.CategoryCleaning},
	{"windows", model.CategoryCleaning},
	{"trash", model.CategoryCleaning},
	{"garbage", model.CategoryCleaning},
	{"recycling", model.CategoryCleaning},
	{"clean", model.CategoryCleaning},
	{"vacuum", model.CategoryCleaning},
	{"mop", model.CategoryCleaning},
	{"dust", model.CategoryCleaning},
	{"scrub", model.CategoryCleaning},
	{"wipe", model.CategoryCleaning},
	{"tidy", model.CategoryCleaning},
}
