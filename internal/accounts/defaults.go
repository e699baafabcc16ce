package accounts

import (
	"github.com/google/uuid"

	"github.com/tally-ledger/tally/internal/model"
)

// StableID derives a deterministic id from a kind and a name so the default
// chart gets the same ids in every new ledger.
func StableID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("tally:"+kind+":"+name))
}

// DefaultChart returns the starter accounts for a household.
func DefaultChart(currency string) []model.Account {
	acct := func(name string, class model.Classification, subtype string) model.Account {
		return model.Account{
			ID:             StableID("account", name),
			Name:           name,
			Classification: class,
			Subtype:        subtype,
			Currency:       currency,
			Visible:        true,
		}
	}
	return []model.Account{
		acct("Checking", model.ClassificationAsset, "depository"),
		acct("Savings", model.ClassificationAsset, "depository"),
		acct("Brokerage", model.ClassificationAsset, "investment"),
		acct("Credit Card", model.ClassificationLiability, "credit_card"),
		acct("Mortgage", model.ClassificationLiability, "loan"),
	}
}

// DefaultCategories returns the starter spending and income categories.
func DefaultCategories() []model.Category {
	cat := func(name string, parent uuid.UUID) model.Category {
		return model.Category{ID: StableID("category", name), Name: name, ParentID: parent}
	}
	food := cat("Food & Dining", uuid.Nil)
	housing := cat("Housing", uuid.Nil)
	return []model.Category{
		food,
		cat("Groceries", food.ID),
		cat("Restaurants", food.ID),
		housing,
		cat("Utilities", housing.ID),
		cat("Transportation", uuid.Nil),
		cat("Entertainment", uuid.Nil),
		cat("Income", uuid.Nil),
	}
}
