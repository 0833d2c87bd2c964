package category

import (
	"strings"

	"github.com/frahmantamala/club-ledger/internal/expense"
)

// Category describes one entry of the fixed expense category list.
type Category struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var descriptions = map[expense.Category]string{
	expense.CategoryDonation:             "Donations made on behalf of the club",
	expense.CategoryPersonalContribution: "Member contributions towards club activities",
	expense.CategoryTravelExpense:        "Travel to events, meetings and conferences",
	expense.CategoryAccommodation:        "Lodging for club travel",
	expense.CategoryEventMaterial:        "Banners, supplies and other event material",
	expense.CategoryFoodRefreshments:     "Food and refreshments at club events",
	expense.CategoryMiscellaneous:        "Anything that fits no other category",
}

// Label turns a category key such as "event_material" into "Event Material".
func Label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func FromExpenseCategory(c expense.Category) Category {
	return Category{
		Name:        string(c),
		Label:       Label(string(c)),
		Description: descriptions[c],
	}
}

type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}
