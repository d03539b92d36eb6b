package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/resellai/resell-api/internal/middleware"
)

func setupMarkSoldServer(t *testing.T, repo *fakeRepo, caller uuid.UUID) *httptest.Server {
	t.Helper()

	h := NewHandler(NewServiceWithRepository(repo, nil, nil, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, caller)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	Routes(r, h, nil)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postMarkSold(t *testing.T, srv *httptest.Server, id string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := http.Post(fmt.Sprintf("%s/marketplace/mark-sold/%s", srv.URL, id), "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestMarkSoldEndpoint(t *testing.T) {
	seller := uuid.New()
	other := uuid.New()
	id := uuid.New()

	t.Run("not the seller", func(t *testing.T) {
		repo := newFakeRepo()
		repo.listings["p.jpg"] = &Listing{ID: id, SellerID: seller, Status: StatusOnSale, ImagePath: "p.jpg"}
		srv := setupMarkSoldServer(t, repo, other)

		status, body := postMarkSold(t, srv, id.String())
		if status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
		if body["error"] != "Not your listing" {
			t.Errorf("error = %v, want %q", body["error"], "Not your listing")
		}
	})

	t.Run("already sold", func(t *testing.T) {
		repo := newFakeRepo()
		repo.listings["p.jpg"] = &Listing{ID: id, SellerID: seller, Status: StatusSold, ImagePath: "p.jpg"}
		srv := setupMarkSoldServer(t, repo, seller)

		status, body := postMarkSold(t, srv, id.String())
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if body["error"] != "Already sold" {
			t.Errorf("error = %v, want %q", body["error"], "Already sold")
		}
	})

	t.Run("unknown listing", func(t *testing.T) {
		repo := newFakeRepo()
		srv := setupMarkSoldServer(t, repo, seller)

		status, _ := postMarkSold(t, srv, uuid.NewString())
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("happy path", func(t *testing.T) {
		repo := newFakeRepo()
		repo.listings["p.jpg"] = &Listing{ID: id, SellerID: seller, Status: StatusOnSale, ImagePath: "p.jpg"}
		srv := setupMarkSoldServer(t, repo, seller)

		status, body := postMarkSold(t, srv, id.String())
		if status != http.StatusOK {
			t.Errorf("status = %d, want 200", status)
		}
		if body["message"] == nil {
			t.Error("success marker missing message field")
		}
		if repo.listings["p.jpg"].Status != StatusSold {
			t.Errorf("status = %q, want sold", repo.listings["p.jpg"].Status)
		}
	})
}
