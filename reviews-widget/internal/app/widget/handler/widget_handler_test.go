package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"gymsite/reviews-widget/internal/app/widget/entity"
	httpclient "gymsite/reviews-widget/internal/app/widget/infrastructure/http"
	"gymsite/reviews-widget/internal/app/widget/repository"
	"gymsite/reviews-widget/internal/app/widget/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCookieName = "review_widget_session"

// fakeReviewsAPI - удаленный сервис отзывов для тестов
type fakeReviewsAPI struct {
	mu         sync.Mutex
	listBody   string
	listStatus int
	postStatus int
	postBody   string
	posts      []map[string]interface{}
}

func (f *fakeReviewsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != "/api/reviews" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.WriteHeader(f.listStatus)
		w.Write([]byte(f.listBody))
	case http.MethodPost:
		var payload map[string]interface{}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		f.posts = append(f.posts, payload)
		w.WriteHeader(f.postStatus)
		w.Write([]byte(f.postBody))
	}
}

func (f *fakeReviewsAPI) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func newFakeReviewsAPI() *fakeReviewsAPI {
	return &fakeReviewsAPI{
		listStatus: http.StatusOK,
		listBody:   `[{"id":1,"name":"A","rating":5,"message":"x"},{"id":2,"name":"B","rating":4,"message":"y"},{"id":3,"name":"C","rating":5,"message":"z"}]`,
		postStatus: http.StatusCreated,
		postBody:   `{"id":4}`,
	}
}

func setupTestRouter(t *testing.T, api *fakeReviewsAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(api)
	t.Cleanup(upstream.Close)

	sessions := repository.NewMemorySessionRepository(time.Hour, 30*time.Second)
	client := httpclient.NewReviewsClient(upstream.URL, 2*time.Second)
	widgetService := service.NewWidgetService(sessions, client, service.NewImageResolver("/default.jpg"))

	return SetupRoutes(
		NewWidgetHandler(widgetService),
		NewSessionMiddleware(testCookieName, time.Hour, false),
		RouterOptions{AllowOrigins: []string{"http://localhost:3000"}},
	)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == testCookieName {
			return cookie
		}
	}
	t.Fatalf("session cookie %q not set", testCookieName)
	return nil
}

func postForm(router *gin.Engine, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var aliceForm = url.Values{"name": {"Alice"}, "rating": {"5"}, "message": {"Great!"}}

// ===================== HTML Widget Tests =====================

func TestShowWidget_RendersTestimonialsAndAverage(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	w := get(router, "/reviews", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Tushar")
	assert.Contains(t, body, "Manan")
	assert.Contains(t, body, "Rahul")
	assert.Contains(t, body, `src="/1.jpg"`)
	assert.Contains(t, body, `<div class="average-rating-number">4.7</div>`)
	assert.Contains(t, body, "Based on 3 reviews")
	assert.Equal(t, 4, strings.Count(body, "bx-star filled"))

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestShowWidget_BackendUnavailable(t *testing.T) {
	api := newFakeReviewsAPI()
	api.listStatus = http.StatusInternalServerError
	router := setupTestRouter(t, api)

	w := get(router, "/reviews", nil)

	// Ошибка чтения не показывается пользователю
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<div class="average-rating-number">0</div>`)
	assert.Contains(t, w.Body.String(), "Based on 0 reviews")
	assert.Contains(t, w.Body.String(), "Tushar")
}

func TestShowWidget_ReusesSessionCookie(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	first := sessionCookie(t, get(router, "/reviews", nil))
	second := sessionCookie(t, get(router, "/reviews", first))

	assert.Equal(t, first.Value, second.Value)
}

func TestShowWidget_ReplacesInvalidSessionCookie(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	w := get(router, "/reviews", &http.Cookie{Name: testCookieName, Value: "not-a-uuid"})

	assert.NotEqual(t, "not-a-uuid", sessionCookie(t, w).Value)
}

// ===================== Form Submit Tests =====================

func TestSubmitForm_Success(t *testing.T) {
	api := newFakeReviewsAPI()
	router := setupTestRouter(t, api)

	w := postForm(router, "/reviews", aliceForm, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, api.postCount())
	assert.Equal(t, map[string]interface{}{"name": "Alice", "rating": float64(5), "message": "Great!"}, api.posts[0])

	body := w.Body.String()
	assert.Contains(t, body, "Review submitted successfully! Thank you for your feedback.")
	assert.Contains(t, body, `value=""`)
	assert.NotContains(t, body, `value="Alice"`)
	assert.Contains(t, body, "Based on 3 reviews")
}

func TestSubmitForm_Rejected(t *testing.T) {
	api := newFakeReviewsAPI()
	api.postStatus = http.StatusBadRequest
	api.postBody = "Invalid rating"
	router := setupTestRouter(t, api)

	w := postForm(router, "/reviews", aliceForm, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to submit review: Invalid rating")
	// Введенные данные остаются в форме
	assert.Contains(t, w.Body.String(), `value="Alice"`)
	assert.Contains(t, w.Body.String(), `<option value="5" selected>`)
	assert.Contains(t, w.Body.String(), "Great!</textarea>")
}

func TestSubmitForm_MissingField(t *testing.T) {
	api := newFakeReviewsAPI()
	router := setupTestRouter(t, api)

	w := postForm(router, "/reviews", url.Values{"rating": {"4"}, "message": {"Nice"}}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter your name.")
	assert.Equal(t, 0, api.postCount())
}

// ===================== Image Error Tests =====================

func TestRecordImageError_SwitchesToDefaultImage(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())
	cookie := sessionCookie(t, get(router, "/reviews", nil))

	w := postForm(router, "/reviews/images/1001/error", url.Values{}, cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = get(router, "/reviews", cookie)
	assert.Contains(t, w.Body.String(), `src="/default.jpg"`)
	assert.NotContains(t, w.Body.String(), `src="/1.jpg"`)
	assert.Contains(t, w.Body.String(), `src="/2.jpg"`)
}

func TestRecordImageError_InvalidID(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	for _, id := range []string{"abc", "0", "-5"} {
		w := postForm(router, "/reviews/images/"+id+"/error", url.Values{}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

// ===================== JSON API Tests =====================

func TestGetState(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	w := get(router, "/api/widget/state", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var view entity.WidgetView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "4.7", view.AverageRating)
	assert.Equal(t, 3, view.TotalReviews)
	assert.Len(t, view.Testimonials, 3)
	assert.Equal(t, "/default.jpg", view.DefaultImageURL)
	assert.Equal(t, entity.PhaseIdle, view.Submission)
}

func TestSubmitReview_JSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPosts  int
	}{
		{"success", `{"name":"Alice","rating":5,"message":"Great!"}`, http.StatusOK, 1},
		{"rating out of range", `{"name":"Alice","rating":9,"message":"Great!"}`, http.StatusUnprocessableEntity, 0},
		{"missing rating", `{"name":"Alice","message":"Great!"}`, http.StatusUnprocessableEntity, 0},
		{"malformed body", `{"name":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeReviewsAPI()
			router := setupTestRouter(t, api)

			req, _ := http.NewRequest(http.MethodPost, "/api/widget/reviews", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantPosts, api.postCount())
		})
	}
}

func TestSubmitReview_NetworkError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Сервис отзывов недоступен
	upstream := httptest.NewServer(http.NotFoundHandler())
	unreachable := upstream.URL
	upstream.Close()

	sessions := repository.NewMemorySessionRepository(time.Hour, 30*time.Second)
	widgetService := service.NewWidgetService(sessions, httpclient.NewReviewsClient(unreachable, time.Second), service.NewImageResolver("/default.jpg"))
	router := SetupRoutes(NewWidgetHandler(widgetService), NewSessionMiddleware(testCookieName, time.Hour, false), RouterOptions{})

	req, _ := http.NewRequest(http.MethodPost, "/api/widget/reviews", strings.NewReader(`{"name":"Alice","rating":5,"message":"Great!"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var view entity.WidgetView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotNil(t, view.Notification)
	assert.Equal(t, entity.NotificationError, view.Notification.Kind)
	assert.Equal(t, "Network error. Please check your connection and try again.", view.Notification.Text)
	assert.Equal(t, "Alice", view.Draft.Name)
}

func TestCORS_Preflight(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	req, _ := http.NewRequest(http.MethodOptions, "/api/widget/reviews", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(t, newFakeReviewsAPI())

	w := get(router, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), serviceName)
}

// ===================== Mocked Service Tests =====================

type MockWidgetService struct {
	mock.Mock
}

func (m *MockWidgetService) Mount(ctx context.Context, sessionID string) (*entity.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockWidgetService) Submit(ctx context.Context, sessionID string, draft entity.Draft) (*service.SubmissionResult, error) {
	args := m.Called(ctx, sessionID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmissionResult), args.Error(1)
}

func (m *MockWidgetService) RecordImageError(ctx context.Context, sessionID string, reviewID int) error {
	args := m.Called(ctx, sessionID, reviewID)
	return args.Error(0)
}

func (m *MockWidgetService) View(session *entity.Session, notification *entity.Notification) entity.WidgetView {
	return entity.WidgetView{Draft: session.Draft, Submission: session.Submission.Phase, Notification: notification}
}

func setupMockRouter(widgetService *MockWidgetService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRoutes(NewWidgetHandler(widgetService), NewSessionMiddleware(testCookieName, time.Hour, false), RouterOptions{})
}

func TestSubmitReview_InProgress(t *testing.T) {
	mockService := new(MockWidgetService)
	session := entity.NewSession("s")
	session.Submission.Phase = entity.PhasePending
	mockService.On("Submit", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("entity.Draft")).
		Return(&service.SubmissionResult{
			Session:      session,
			Outcome:      service.OutcomeInProgress,
			Notification: &entity.Notification{Kind: entity.NotificationError, Text: "busy"},
			Cause:        service.ErrSubmissionInProgress,
		}, nil)
	router := setupMockRouter(mockService)

	req, _ := http.NewRequest(http.MethodPost, "/api/widget/reviews", strings.NewReader(`{"name":"Alice","rating":5,"message":"Great!"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestSubmitReview_PassesDraftFromJSON(t *testing.T) {
	mockService := new(MockWidgetService)
	want := entity.Draft{Name: "Alice", Rating: "3", Message: "Ok"}
	mockService.On("Submit", mock.Anything, mock.AnythingOfType("string"), want).
		Return(&service.SubmissionResult{Session: entity.NewSession("s"), Outcome: service.OutcomeSucceeded}, nil)
	router := setupMockRouter(mockService)

	req, _ := http.NewRequest(http.MethodPost, "/api/widget/reviews", strings.NewReader(`{"name":"Alice","rating":3,"message":"Ok"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestMount_StoreFailure(t *testing.T) {
	mockService := new(MockWidgetService)
	mockService.On("Mount", mock.Anything, mock.AnythingOfType("string")).Return(nil, errors.New("redis down"))
	router := setupMockRouter(mockService)

	assert.Equal(t, http.StatusInternalServerError, get(router, "/reviews", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, get(router, "/api/widget/state", nil).Code)
}

func TestRecordImageError_StoreFailure(t *testing.T) {
	mockService := new(MockWidgetService)
	mockService.On("RecordImageError", mock.Anything, mock.AnythingOfType("string"), 1002).Return(errors.New("redis down"))
	router := setupMockRouter(mockService)

	w := postForm(router, "/api/widget/images/1002/error", url.Values{}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSubmissionStatus(t *testing.T) {
	tests := map[service.SubmissionOutcome]int{
		service.OutcomeSucceeded:    http.StatusOK,
		service.OutcomeInvalid:      http.StatusUnprocessableEntity,
		service.OutcomeInProgress:   http.StatusConflict,
		service.OutcomeRejected:     http.StatusBadGateway,
		service.OutcomeNetworkError: http.StatusBadGateway,
		"unknown":                   http.StatusInternalServerError,
	}

	for outcome, want := range tests {
		assert.Equal(t, want, submissionStatus(outcome), string(outcome))
	}
}
