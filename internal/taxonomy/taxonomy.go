// Package taxonomy holds the fixed Schedule C expense category table.
//
// The table is the single source of truth shared by the rules engine, the LLM
// allow-list, and the receipt finalizer; every component imports it instead of
// carrying its own copy.
package taxonomy

import "strings"

// Category is one entry in the fixed expense taxonomy.
type Category struct {
	Name        string
	Description string
	ID          int
}

// The Schedule C expense categories. Order and ids are stable; the table is
// append-only across releases so stored category_id values never change
// meaning.
var categories = []Category{
	{ID: 1, Name: "Advertising", Description: "Marketing, promotion, business cards, online ads"},
	{ID: 2, Name: "Car and Truck Expenses", Description: "Fuel, parking, tolls, vehicle maintenance for business use"},
	{ID: 3, Name: "Commissions and Fees", Description: "Sales commissions, referral and platform fees"},
	{ID: 4, Name: "Contract Labor", Description: "Payments to independent contractors and freelancers"},
	{ID: 5, Name: "Depletion", Description: "Depletion of natural resource property"},
	{ID: 6, Name: "Depreciation", Description: "Depreciation and section 179 deductions on business assets"},
	{ID: 7, Name: "Employee Benefit Programs", Description: "Health plans and other employee benefits"},
	{ID: 8, Name: "Insurance", Description: "Business insurance premiums other than health"},
	{ID: 9, Name: "Mortgage Interest", Description: "Interest on business real-estate mortgages"},
	{ID: 10, Name: "Other Interest", Description: "Interest on business loans and credit cards"},
	{ID: 11, Name: "Legal and Professional Services", Description: "Attorneys, accountants, bookkeepers, consultants"},
	{ID: 12, Name: "Office Expense", Description: "General office costs, software subscriptions, postage"},
	{ID: 13, Name: "Pension and Profit Sharing", Description: "Contributions to employee retirement plans"},
	{ID: 14, Name: "Equipment Rental", Description: "Rent or lease of vehicles, machinery, and equipment"},
	{ID: 15, Name: "Rent", Description: "Rent or lease of office or other business property"},
	{ID: 16, Name: "Repairs and Maintenance", Description: "Repairs and upkeep of business property and equipment"},
	{ID: 17, Name: "Supplies", Description: "Consumable supplies and materials used in the business"},
	{ID: 18, Name: "Taxes and Licenses", Description: "Business taxes, permits, and license fees"},
	{ID: 19, Name: "Travel", Description: "Airfare, lodging, and other away-from-home travel costs"},
	{ID: 20, Name: "Meals", Description: "Business meals, restaurants, coffee shops, catering"},
	{ID: 21, Name: "Utilities", Description: "Electricity, water, internet, phone for business use"},
	{ID: 22, Name: "Wages", Description: "Employee salaries and wages"},
	{ID: 23, Name: "Other Expenses", Description: "Ordinary business expenses not covered elsewhere"},
}

var (
	byID   map[int]Category
	byName map[string]Category
)

func init() {
	byID = make(map[int]Category, len(categories))
	byName = make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
		byName[strings.ToLower(c.Name)] = c
	}
}

// All returns the full category table in id order.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Count returns the number of categories in the taxonomy.
func Count() int {
	return len(categories)
}

// IDOf resolves a category name (case-insensitive) to its id.
func IDOf(name string) (int, bool) {
	c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, false
	}
	return c.ID, true
}

// NameOf resolves a category id to its canonical name.
func NameOf(id int) (string, bool) {
	c, ok := byID[id]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// Lookup resolves a category name (case-insensitive) to its full entry.
func Lookup(name string) (Category, bool) {
	c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}
