package convert

import (
	"fmt"

	"github.com/dukerupert/berrybridge/internal/model"
)

const (
	// PointsPerBerry is how many event points earn one berry.
	PointsPerBerry = 10

	// PaisePerBerry is the purchase price of one berry (Rs 0.01).
	PaisePerBerry = 1
)

// BerriesForPoints returns floor(points / PointsPerBerry). Negative points earn nothing.
func BerriesForPoints(points int) int {
	if points <= 0 {
		return 0
	}
	return points / PointsPerBerry
}

// PurchaseCost quotes the rupee price of buying the given number of berries.
func PurchaseCost(berries int) model.Money {
	if berries < 0 {
		berries = 0
	}
	paise := int64(berries) * PaisePerBerry
	return model.Money{
		Paise:  paise,
		Rupees: fmt.Sprintf("%d.%02d", paise/100, paise%100),
	}
}
