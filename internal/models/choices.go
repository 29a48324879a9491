package models

// Choice is a single value/label pair of a static enumeration.
type Choice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// CategoryType distinguishes income from expense categories.
type CategoryType int

const (
	CategoryTypeExpense CategoryType = 1
	CategoryTypeIncome  CategoryType = 2
)

var categoryTypeLabels = map[CategoryType]string{
	CategoryTypeExpense: "Expense",
	CategoryTypeIncome:  "Income",
}

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	_, ok := categoryTypeLabels[t]
	return ok
}

// Label returns the display name of the type.
func (t CategoryType) Label() string { return categoryTypeLabels[t] }

// CategoryTypeChoices lists all category types.
func CategoryTypeChoices() []Choice {
	return []Choice{
		{Value: int(CategoryTypeExpense), Label: CategoryTypeExpense.Label()},
		{Value: int(CategoryTypeIncome), Label: CategoryTypeIncome.Label()},
	}
}

// CategoryPriority ranks categories. Income and expense categories use
// disjoint subsets of the values.
type CategoryPriority int

const (
	CategoryPriorityRegular       CategoryPriority = 1
	CategoryPriorityIrregular     CategoryPriority = 2
	CategoryPriorityMostImportant CategoryPriority = 3
	CategoryPriorityDebts         CategoryPriority = 4
	CategoryPrioritySavings       CategoryPriority = 5
	CategoryPriorityOthers        CategoryPriority = 6
)

var categoryPriorityLabels = map[CategoryPriority]string{
	CategoryPriorityRegular:       "Regular",
	CategoryPriorityIrregular:     "Irregular",
	CategoryPriorityMostImportant: "Most important",
	CategoryPriorityDebts:         "Debts",
	CategoryPrioritySavings:       "Savings",
	CategoryPriorityOthers:        "Others",
}

// Valid reports whether p is a known priority of any type.
func (p CategoryPriority) Valid() bool {
	_, ok := categoryPriorityLabels[p]
	return ok
}

// Label returns the display name of the priority.
func (p CategoryPriority) Label() string { return categoryPriorityLabels[p] }

// ValidFor reports whether p belongs to the priority subset of t.
func (p CategoryPriority) ValidFor(t CategoryType) bool {
	switch t {
	case CategoryTypeIncome:
		return p == CategoryPriorityRegular || p == CategoryPriorityIrregular
	case CategoryTypeExpense:
		return p >= CategoryPriorityMostImportant && p <= CategoryPriorityOthers
	}
	return false
}

// CategoryPriorityChoices lists the priorities of t, or all priorities when t is zero.
func CategoryPriorityChoices(t CategoryType) []Choice {
	var choices []Choice
	for p := CategoryPriorityRegular; p <= CategoryPriorityOthers; p++ {
		if t != 0 && !p.ValidFor(t) {
			continue
		}
		choices = append(choices, Choice{Value: int(p), Label: p.Label()})
	}
	return choices
}

// DepositType classifies deposits.
type DepositType int

const (
	DepositTypeDailyExpenses DepositType = 1
	DepositTypeSavings       DepositType = 2
	DepositTypeInvestments   DepositType = 3
	DepositTypeOther         DepositType = 4
)

var depositTypeLabels = map[DepositType]string{
	DepositTypeDailyExpenses: "Daily expenses",
	DepositTypeSavings:       "Savings",
	DepositTypeInvestments:   "Investments",
	DepositTypeOther:         "Other",
}

// Valid reports whether t is a known deposit type.
func (t DepositType) Valid() bool {
	_, ok := depositTypeLabels[t]
	return ok
}

// Label returns the display name of the type.
func (t DepositType) Label() string { return depositTypeLabels[t] }

// DepositTypeChoices lists all deposit types.
func DepositTypeChoices() []Choice {
	var choices []Choice
	for t := DepositTypeDailyExpenses; t <= DepositTypeOther; t++ {
		choices = append(choices, Choice{Value: int(t), Label: t.Label()})
	}
	return choices
}

// PeriodStatus is the lifecycle state of a period.
type PeriodStatus int

const (
	PeriodStatusDraft  PeriodStatus = 1
	PeriodStatusActive PeriodStatus = 2
	PeriodStatusClosed PeriodStatus = 3
)

var periodStatusLabels = map[PeriodStatus]string{
	PeriodStatusDraft:  "Draft",
	PeriodStatusActive: "Active",
	PeriodStatusClosed: "Closed",
}

// Valid reports whether s is a known period status.
func (s PeriodStatus) Valid() bool {
	_, ok := periodStatusLabels[s]
	return ok
}

// Label returns the display name of the status.
func (s PeriodStatus) Label() string { return periodStatusLabels[s] }

// PeriodStatusChoices lists all period statuses.
func PeriodStatusChoices() []Choice {
	var choices []Choice
	for s := PeriodStatusDraft; s <= PeriodStatusClosed; s++ {
		choices = append(choices, Choice{Value: int(s), Label: s.Label()})
	}
	return choices
}

// TransferType distinguishes incomes, expenses and relocations between deposits.
type TransferType int

const (
	TransferTypeIncome     TransferType = 1
	TransferTypeExpense    TransferType = 2
	TransferTypeRelocation TransferType = 3
)

var transferTypeLabels = map[TransferType]string{
	TransferTypeIncome:     "Income",
	TransferTypeExpense:    "Expense",
	TransferTypeRelocation: "Relocation",
}

// Valid reports whether t is a known transfer type.
func (t TransferType) Valid() bool {
	_, ok := transferTypeLabels[t]
	return ok
}

// Label returns the display name of the type.
func (t TransferType) Label() string { return transferTypeLabels[t] }

// CategoryType returns the category type transfers of t must use. The second
// result is false for relocations, which carry no category.
func (t TransferType) CategoryType() (CategoryType, bool) {
	switch t {
	case TransferTypeIncome:
		return CategoryTypeIncome, true
	case TransferTypeExpense:
		return CategoryTypeExpense, true
	}
	return 0, false
}

// TransferTypeChoices lists all transfer types.
func TransferTypeChoices() []Choice {
	var choices []Choice
	for t := TransferTypeIncome; t <= TransferTypeRelocation; t++ {
		choices = append(choices, Choice{Value: int(t), Label: t.Label()})
	}
	return choices
}

// PredictionProgressStatus classifies how much of a plan has been used.
type PredictionProgressStatus int

const (
	ProgressNotUsed        PredictionProgressStatus = 1
	ProgressInPlannedRange PredictionProgressStatus = 2
	ProgressFullyUtilized  PredictionProgressStatus = 3
	ProgressOverused       PredictionProgressStatus = 4
)

var progressStatusLabels = map[PredictionProgressStatus]string{
	ProgressNotUsed:        "Not used",
	ProgressInPlannedRange: "In planned range",
	ProgressFullyUtilized:  "Fully utilized",
	ProgressOverused:       "Overused",
}

// Valid reports whether s is a known progress status.
func (s PredictionProgressStatus) Valid() bool {
	_, ok := progressStatusLabels[s]
	return ok
}

// Label returns the display name of the status.
func (s PredictionProgressStatus) Label() string { return progressStatusLabels[s] }

// PredictionProgressStatusChoices lists all progress statuses.
func PredictionProgressStatusChoices() []Choice {
	var choices []Choice
	for s := ProgressNotUsed; s <= ProgressOverused; s++ {
		choices = append(choices, Choice{Value: int(s), Label: s.Label()})
	}
	return choices
}
