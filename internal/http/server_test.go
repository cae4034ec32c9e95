package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"ledger/internal/catalog"
	"ledger/internal/core"
	api "ledger/internal/http"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

type brokenStore struct{}

func (brokenStore) Append(context.Context, core.Entry) error { return errors.New("disk on fire") }
func (brokenStore) List(context.Context) ([]core.Entry, error) {
	return nil, errors.New("disk on fire")
}

var _ = Describe("Ledger API", func() {
	var (
		l       *ledger.Ledger
		handler http.Handler
		fixed   time.Time
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder, v any) {
		ExpectWithOffset(1, json.NewDecoder(w.Body).Decode(v)).To(Succeed())
	}

	BeforeEach(func() {
		fixed = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
		l = ledger.New(catalog.Builtin(), ledger.WithClock(func() time.Time { return fixed }))
		handler = api.NewServer(":0", l, log.Discard()).Handler
	})

	Describe("GET /healthz", func() {
		It("reports ok", func() {
			w := do(http.MethodGet, "/healthz", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body map[string]any
			decode(w, &body)
			Expect(body).To(HaveKeyWithValue("status", "ok"))
		})

		It("sets security headers", func() {
			w := do(http.MethodGet, "/healthz", "")
			Expect(w.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
			Expect(w.Header().Get("X-Frame-Options")).To(Equal("DENY"))
			Expect(w.Header().Get("Strict-Transport-Security")).To(BeEmpty())
		})
	})

	Describe("GET /api/categories", func() {
		It("lists the catalog in order with its default", func() {
			w := do(http.MethodGet, "/api/categories", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var body struct {
				Categories []core.Category `json:"categories"`
				Default    string          `json:"default"`
			}
			decode(w, &body)
			Expect(body.Categories).To(HaveLen(7))
			Expect(body.Categories[0].Value).To(Equal("salary"))
			Expect(body.Default).To(Equal("salary"))
		})
	})

	Describe("POST /api/entries", func() {
		It("records an entry and returns it", func() {
			w := do(http.MethodPost, "/api/entries", `{"kind":"expense","amount":"12.50","category":"food"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var body struct {
				ID       string        `json:"id"`
				Kind     string        `json:"kind"`
				Amount   string        `json:"amount"`
				Category core.Category `json:"category"`
				Date     string        `json:"date"`
				Time     string        `json:"time"`
			}
			decode(w, &body)
			Expect(body.ID).NotTo(BeEmpty())
			Expect(body.Kind).To(Equal("expense"))
			Expect(body.Amount).To(Equal("12.50"))
			Expect(body.Category.Value).To(Equal("food"))
			Expect(body.Date).To(Equal("2024-03-09"))
			Expect(body.Time).To(Equal("14:05:07"))
		})

		It("accepts a numeric amount", func() {
			w := do(http.MethodPost, "/api/entries", `{"kind":"income","amount":100,"category":"salary"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var body struct {
				Amount string `json:"amount"`
			}
			decode(w, &body)
			Expect(body.Amount).To(Equal("100.00"))
		})

		It("falls back to the default category", func() {
			w := do(http.MethodPost, "/api/entries", `{"kind":"expense","amount":"3","category":"nonexistent"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var body struct {
				Category core.Category `json:"category"`
			}
			decode(w, &body)
			Expect(body.Category.Value).To(Equal("salary"))
		})

		DescribeTable("rejects invalid entries without changing the ledger",
			func(payload string, status int) {
				w := do(http.MethodPost, "/api/entries", payload)
				Expect(w.Code).To(Equal(status))

				var body map[string]string
				decode(w, &body)
				Expect(body["error"]).NotTo(BeEmpty())

				n, err := l.Len(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(BeZero())
			},
			Entry("non-numeric amount", `{"kind":"expense","amount":"abc","category":"food"}`, http.StatusUnprocessableEntity),
			Entry("negative amount", `{"kind":"expense","amount":"-5","category":"food"}`, http.StatusUnprocessableEntity),
			Entry("missing amount", `{"kind":"expense","category":"food"}`, http.StatusUnprocessableEntity),
			Entry("unknown kind", `{"kind":"refund","amount":"5","category":"food"}`, http.StatusUnprocessableEntity),
			Entry("malformed JSON", `{"kind":`, http.StatusBadRequest),
			Entry("unknown field", `{"kind":"expense","amount":"5","note":"x"}`, http.StatusBadRequest),
			Entry("boolean amount", `{"kind":"expense","amount":true}`, http.StatusBadRequest),
			Entry("huge exponent", `{"kind":"expense","amount":"1e-30000000","category":"food"}`, http.StatusUnprocessableEntity),
			Entry("huge numeric exponent", `{"kind":"expense","amount":1e-30000000,"category":"food"}`, http.StatusUnprocessableEntity),
		)
	})

	Context("when the id generator repeats itself", func() {
		BeforeEach(func() {
			l = ledger.New(catalog.Builtin(), ledger.WithIDGenerator(func() string { return "fixed-id" }))
			handler = api.NewServer(":0", l, log.Discard()).Handler
		})

		It("answers 409 for the second entry and keeps only the first", func() {
			payload := `{"kind":"income","amount":"1","category":"salary"}`
			Expect(do(http.MethodPost, "/api/entries", payload).Code).To(Equal(http.StatusCreated))

			w := do(http.MethodPost, "/api/entries", payload)
			Expect(w.Code).To(Equal(http.StatusConflict))

			n, err := l.Len(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})
	})

	It("answers 422 when an amount would overflow the income total", func() {
		payload := `{"kind":"income","amount":"92233720368547758.07","category":"salary"}`
		Expect(do(http.MethodPost, "/api/entries", payload).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/api/entries", payload).Code).To(Equal(http.StatusUnprocessableEntity))

		w := do(http.MethodGet, "/api/summary", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Income string `json:"income"`
		}
		decode(w, &body)
		Expect(body.Income).To(Equal("92233720368547758.07"))
	})

	Describe("GET /api/entries", func() {
		It("returns an empty list for a new ledger", func() {
			w := do(http.MethodGet, "/api/entries", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Entries []map[string]any `json:"entries"`
				Count   int              `json:"count"`
			}
			decode(w, &body)
			Expect(body.Entries).NotTo(BeNil())
			Expect(body.Entries).To(BeEmpty())
			Expect(body.Count).To(BeZero())
		})

		It("returns entries in insertion order", func() {
			for _, p := range []string{
				`{"kind":"income","amount":"100","category":"salary"}`,
				`{"kind":"expense","amount":"40","category":"food"}`,
			} {
				Expect(do(http.MethodPost, "/api/entries", p).Code).To(Equal(http.StatusCreated))
			}

			w := do(http.MethodGet, "/api/entries", "")
			var body struct {
				Entries []struct {
					Kind   string `json:"kind"`
					Amount string `json:"amount"`
				} `json:"entries"`
				Count int `json:"count"`
			}
			decode(w, &body)
			Expect(body.Count).To(Equal(2))
			Expect(body.Entries[0].Kind).To(Equal("income"))
			Expect(body.Entries[1].Amount).To(Equal("40.00"))
		})
	})

	Describe("GET /api/summary", func() {
		It("reports zero totals for an empty ledger", func() {
			w := do(http.MethodGet, "/api/summary", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body map[string]any
			decode(w, &body)
			Expect(body).To(HaveKeyWithValue("income", "0.00"))
			Expect(body).To(HaveKeyWithValue("expense", "0.00"))
			Expect(body).To(HaveKeyWithValue("balance", "0.00"))
			Expect(body).To(HaveKeyWithValue("count", BeNumerically("==", 0)))
		})

		It("reports a negative balance when expenses exceed income", func() {
			do(http.MethodPost, "/api/entries", `{"kind":"income","amount":"10","category":"salary"}`)
			do(http.MethodPost, "/api/entries", `{"kind":"expense","amount":"25.50","category":"food"}`)

			w := do(http.MethodGet, "/api/summary", "")
			var body struct {
				Income  string `json:"income"`
				Expense string `json:"expense"`
				Balance string `json:"balance"`
				Count   int    `json:"count"`
			}
			decode(w, &body)
			Expect(body.Income).To(Equal("10.00"))
			Expect(body.Expense).To(Equal("25.50"))
			Expect(body.Balance).To(Equal("-15.50"))
			Expect(body.Count).To(Equal(2))
		})
	})

	Context("when the store fails", func() {
		BeforeEach(func() {
			l = ledger.New(catalog.Builtin(), ledger.WithStore(brokenStore{}))
			handler = api.NewServer(":0", l, log.Discard()).Handler
		})

		It("answers 500 on append", func() {
			w := do(http.MethodPost, "/api/entries", `{"kind":"income","amount":"1","category":"salary"}`)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})

		It("answers 500 on summary", func() {
			Expect(do(http.MethodGet, "/api/summary", "").Code).To(Equal(http.StatusInternalServerError))
		})
	})

	It("answers 404 as JSON for unknown routes", func() {
		w := do(http.MethodGet, "/api/nope", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	})

	It("answers 405 for unsupported methods", func() {
		Expect(do(http.MethodDelete, "/api/entries", "").Code).To(Equal(http.StatusMethodNotAllowed))
	})
})
