package service

import (
	"net/url"
	"strings"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

// ImageResolver выбирает URL изображения карточки отзыва
type ImageResolver struct {
	defaultURL string
}

func NewImageResolver(defaultURL string) *ImageResolver {
	return &ImageResolver{defaultURL: defaultURL}
}

// Resolve проверяет URL изображения:
// пустой - стандартное изображение, "/..." - как есть,
// абсолютный URL - как есть, все остальное - стандартное изображение
func (r *ImageResolver) Resolve(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return r.defaultURL
	}

	if strings.HasPrefix(raw, "/") {
		return raw
	}

	if isAbsoluteURL(raw) {
		return raw
	}

	return r.defaultURL
}

// For учитывает ошибки загрузки: после первой ошибки для ID
// до конца сессии используется стандартное изображение
func (r *ImageResolver) For(review entity.Review, session *entity.Session) string {
	if session != nil && session.HasImageError(review.ID) {
		return r.defaultURL
	}
	return r.Resolve(review.ImageURL)
}

func (r *ImageResolver) DefaultURL() string {
	return r.defaultURL
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}
