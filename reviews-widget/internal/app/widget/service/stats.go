package service

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

const maxStars = 5

// AverageRating - среднее по всем отзывам, округленное до одного знака
// Для пустого списка возвращает 0
func AverageRating(reviews []entity.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	rounded, _ := strconv.ParseFloat(formatOneDecimal(mean(reviews)), 64)
	return rounded
}

// FormatAverage - "0" для пустого списка, иначе один знак после запятой ("4.7", "5.0")
func FormatAverage(reviews []entity.Review) string {
	if len(reviews) == 0 {
		return "0"
	}
	return formatOneDecimal(mean(reviews))
}

func mean(reviews []entity.Review) float64 {
	total := 0
	for _, review := range reviews {
		total += review.Rating
	}
	return float64(total) / float64(len(reviews))
}

// formatOneDecimal округляет точное двоичное значение avg до десятых,
// половина округляется вверх: 23/20 (1.1499...) -> "1.1", 17/4 (4.25) -> "4.3".
// avg*10 во float64 теряет эту разницу, поэтому считаем в big.Float
func formatOneDecimal(avg float64) string {
	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(avg))
	scaled.Mul(scaled, big.NewFloat(10))

	tenths, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetInt(tenths))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		tenths.Add(tenths, big.NewInt(1))
	}

	sign := ""
	if avg < 0 && tenths.Sign() != 0 {
		sign = "-"
	}
	n := tenths.Int64()
	return fmt.Sprintf("%s%d.%d", sign, n/10, n%10)
}

// TotalReviews - количество отзывов, 0 для nil
func TotalReviews(reviews []entity.Review) int {
	return len(reviews)
}

// FilledStars - сколько из пяти звезд закрасить: целая часть среднего
func FilledStars(avg float64) int {
	filled := int(math.Floor(avg))
	if filled < 0 {
		return 0
	}
	if filled > maxStars {
		return maxStars
	}
	return filled
}
