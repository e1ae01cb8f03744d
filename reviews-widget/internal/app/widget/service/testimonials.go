package service

import "gymsite/reviews-widget/internal/app/widget/entity"

// На странице всегда показываются только эти три отзыва
var fixedReviews = [...]entity.Review{
	{
		ID:       1001,
		Name:     "Tushar",
		Rating:   5,
		Message:  "Amazing gym with top-notch equipment...",
		ImageURL: "/1.jpg",
	},
	{
		ID:       1002,
		Name:     "Manan",
		Rating:   4,
		Message:  "Great trainers and friendly environment!",
		ImageURL: "/2.jpg",
	},
	{
		ID:       1003,
		Name:     "Rahul",
		Rating:   5,
		Message:  "I achieved my fitness goals here! Highly recommended.",
		ImageURL: "/3.jpg",
	},
}

// FixedReviews возвращает новую копию фиксированных отзывов при каждом вызове
func FixedReviews() []entity.Review {
	reviews := make([]entity.Review, len(fixedReviews))
	copy(reviews, fixedReviews[:])
	return reviews
}
