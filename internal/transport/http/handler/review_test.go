package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/handler"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
)

type fakeReviewUsecase struct {
	own *domain.Review
}

func (f *fakeReviewUsecase) Create(_ context.Context, owner *domain.User, rating int, text string) (*domain.Review, error) {
	if f.own != nil {
		return nil, domain.ErrReviewExists
	}
	f.own = &domain.Review{ID: "review-1", Rating: rating, Text: text, OwnerID: owner.ID}
	return f.own, nil
}

func (f *fakeReviewUsecase) ListAll(_ context.Context) ([]*domain.Review, error) {
	if f.own == nil {
		return nil, nil
	}
	cp := *f.own
	cp.Owner = &domain.Owner{ID: cp.OwnerID, Username: testUser.Username}
	return []*domain.Review{&cp}, nil
}

func (f *fakeReviewUsecase) FindOwn(_ context.Context, _ *domain.User) (*domain.Review, error) {
	return f.own, nil
}

func (f *fakeReviewUsecase) UpdateOwn(_ context.Context, _ *domain.User, rating int, text string) (*domain.Review, error) {
	if f.own == nil {
		return nil, domain.ErrReviewNotFound
	}
	f.own.Rating, f.own.Text = rating, text
	return f.own, nil
}

func (f *fakeReviewUsecase) RemoveOwn(_ context.Context, _ *domain.User) (*domain.Review, error) {
	if f.own == nil {
		return nil, domain.ErrReviewNotFound
	}
	r := f.own
	f.own = nil
	return r, nil
}

func newReviewEngine(uc *fakeReviewUsecase) *gin.Engine {
	h := handler.NewReviewHandler(uc)

	r := gin.New()
	r.Use(middleware.Errors(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.GET("/api/reviews", h.List)
	own := r.Group("/api/reviews/own", withUser(testUser))
	own.GET("", h.FindOwn)
	own.POST("", h.Create)
	own.PATCH("", h.Update)
	own.DELETE("", h.Remove)
	return r
}

func TestReviewFlow(t *testing.T) {
	uc := &fakeReviewUsecase{}
	r := newReviewEngine(uc)

	w := send(r, http.MethodGet, "/api/reviews/own", "")
	if w.Code != http.StatusOK || string(decode(t, w).Data) != "null" {
		t.Fatalf("own before create: %d %s", w.Code, w.Body.String())
	}

	if w := send(r, http.MethodPost, "/api/reviews/own", `{"rating":5,"text":"great"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/reviews/own", `{"rating":5,"text":"again"}`); w.Code != http.StatusConflict {
		t.Fatalf("second create status = %d, want 409", w.Code)
	}

	w = send(r, http.MethodGet, "/api/reviews", "")
	var list struct {
		Quantity int              `json:"quantity"`
		Data     []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Quantity != 1 {
		t.Fatalf("quantity = %d", list.Quantity)
	}
	if owner, ok := list.Data[0]["owner"].(map[string]any); !ok || owner["username"] != testUser.Username {
		t.Fatalf("owner not populated: %v", list.Data[0]["owner"])
	}

	if w := send(r, http.MethodDelete, "/api/reviews/own", ""); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", w.Code)
	}
	if w := send(r, http.MethodPatch, "/api/reviews/own", `{"rating":3,"text":"meh"}`); w.Code != http.StatusNotFound {
		t.Fatalf("update after delete status = %d, want 404", w.Code)
	}
}

func TestReviewEmptyList(t *testing.T) {
	w := send(newReviewEngine(&fakeReviewUsecase{}), http.MethodGet, "/api/reviews", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != `{"code":200,"data":[],"quantity":0}` {
		t.Fatalf("body = %s", got)
	}
}

func TestReviewValidation(t *testing.T) {
	cases := map[string]struct {
		body string
		msg  string
	}{
		"rating too high": {`{"rating":6,"text":"x"}`, `"rating" must be less than or equal to 5`},
		"missing text":    {`{"rating":4}`, `"text" is a required field`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := send(newReviewEngine(&fakeReviewUsecase{}), http.MethodPost, "/api/reviews/own", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if msg := decode(t, w).Message; msg != tc.msg {
				t.Fatalf("message = %q, want %q", msg, tc.msg)
			}
		})
	}
}
