package models

// PyramidRow is one row of the face-down pyramid. Rows are numbered 1 to 5
// from the base. Distribute rows let matching players hand out their drinks.
type PyramidRow struct {
	RowNumber       int     `json:"rowNumber"`
	Cards           []*Card `json:"cards"`
	DrinkMultiplier int     `json:"drinkMultiplier"`
	IsDistribute    bool    `json:"isDistribute"`
}
