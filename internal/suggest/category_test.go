package suggest

import (
	"testing"

	"github.com/dukerupert/chorequest/internal/model"
)

func TestCategoryExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"vacuum", model.CategoryCleaning},
		{"laundry", model.CategoryLaundry},
		{"dishes", model.CategoryDishes},
		{"mow the lawn", model.CategoryOutdoor},
		{"walk the dog", model.CategoryPets},
		{"groceries", model.CategoryShopping},
		{"meal prep", model.CategoryCooking},
		{"bedtime", model.CategoryChildcare},
	}
	for _, tt := range tests {
		got, ok := Category(tt.input)
		if !ok || got != tt.want {
			t.Errorf("Category(%q) = %q, %v, want %q", tt.input, got, ok, tt.want)
		}
	}
}

func TestCategoryKeywordMatch(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"empty the dishwasher", model.CategoryDishes},
		{"clean the bathroom", model.CategoryCleaning},
		{"take out the trash", model.CategoryCleaning},
		{"change the bed sheets", model.CategoryLaundry},
		{"scoop the litter box", model.CategoryPets},
		{"help with homework", model.CategoryChildcare},
		{"rake leaves", model.CategoryOutdoor},
		{"replace the air filter", model.CategoryMaintenance},
		{"buy milk", model.CategoryShopping},
		{"bake bread", model.CategoryCooking},
	}
	for _, tt := range tests {
		got, ok := Category(tt.input)
		if !ok || got != tt.want {
			t.Errorf("Category(%q) = %q, %v, want %q", tt.input, got, ok, tt.want)
		}
	}
}

func TestCategoryCaseAndSpacing(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"VACUUM", model.CategoryCleaning},
		{"  Walk   the  Dog ", model.CategoryPets},
		{"Empty The DISHWASHER", model.CategoryDishes},
	}
	for _, tt := range tests {
		got, ok := Category(tt.input)
		if !ok || got != tt.want {
			t.Errorf("Category(%q) = %q, %v, want %q", tt.input, got, ok, tt.want)
		}
	}
}

func TestCategoryNoMatch(t *testing.T) {
	for _, input := range []string{"", "   ", "call grandma", "xyz"} {
		if got, ok := Category(input); ok {
			t.Errorf("Category(%q) = %q, want no match", input, got)
		}
	}
}

func TestKeywordCategoriesValid(t *testing.T) {
	for name, cat := range exactMatch {
		if !cat.Valid() {
			t.Errorf("exact %q maps to invalid category %q", name, cat)
		}
	}
	for _, entry := range keywordMatches {
		if !entry.category.Valid() {
			t.Errorf("keyword %q maps to invalid category %q", entry.keyword, entry.category)
		}
	}
}
