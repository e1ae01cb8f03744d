package entity

// CreateReviewRequest - тело POST /api/reviews удаленного сервиса
type CreateReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

// SubmitReviewRequest - JSON запрос на отправку отзыва через /api/widget/reviews
type SubmitReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TestimonialView - карточка фиксированного отзыва
type TestimonialView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
	Message  string `json:"message"`
	ImageURL string `json:"image_url"`
	Stars    []int  `json:"-"` // Для отрисовки звезд в шаблоне
}

// RatingOption - пункт списка оценок в форме
type RatingOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// WidgetView - все, что нужно для отрисовки виджета
type WidgetView struct {
	Testimonials    []TestimonialView `json:"testimonials"`
	DefaultImageURL string            `json:"default_image_url"` // Замена для не загрузившихся изображений
	AverageRating   string            `json:"average_rating"`
	AverageStars    []bool            `json:"average_stars"` // Пять звезд, true - закрашена
	TotalReviews    int               `json:"total_reviews"`
	Draft           Draft             `json:"draft"`
	RatingOptions   []RatingOption    `json:"rating_options"`
	Submission      SubmissionPhase   `json:"submission"`
	Notification    *Notification     `json:"notification,omitempty"`
}
