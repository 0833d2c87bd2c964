package category_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/club-ledger/internal/category"
)

func TestCategoryService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Category Service Suite")
}

var _ = Describe("Category Service", func() {
	var (
		service *category.Service
		logger  *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = category.NewService(logger)
	})

	It("lists the seven categories in order", func() {
		all := service.GetAllCategories()
		Expect(all).To(HaveLen(7))
		Expect(all[0].Name).To(Equal("donation"))
		Expect(all[6].Name).To(Equal("miscellaneous"))
		for _, c := range all {
			Expect(c.Description).NotTo(BeEmpty())
		}
	})

	It("labels keys for display", func() {
		Expect(category.Label("food_refreshments")).To(Equal("Food Refreshments"))
		Expect(category.Label("donation")).To(Equal("Donation"))
	})

	It("validates names", func() {
		Expect(service.IsValidCategory("accommodation")).To(BeTrue())
		Expect(service.IsValidCategory("makan")).To(BeFalse())

		_, err := service.GetCategoryByName("makan")
		Expect(err).To(HaveOccurred())
	})

	Describe("Handler", func() {
		var router chi.Router

		BeforeEach(func() {
			handler := category.NewHandler(service, logger)
			router = chi.NewRouter()
			router.Get("/categories", handler.GetCategories)
			router.Get("/categories/{name}", handler.GetCategory)
		})

		It("serves the category list", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories", nil))
			Expect(w.Code).To(Equal(http.StatusOK))

			var body category.CategoriesResponse
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.Categories).To(HaveLen(7))
			Expect(body.Categories[4].Label).To(Equal("Event Material"))
		})

		It("answers 404 for unknown categories", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories/makan", nil))
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
