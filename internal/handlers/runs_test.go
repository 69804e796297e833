package handlers_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/kubev2v/taskmaster/api/v1"
	"github.com/kubev2v/taskmaster/internal/config"
	"github.com/kubev2v/taskmaster/internal/handlers"
	"github.com/kubev2v/taskmaster/internal/services"
	"github.com/kubev2v/taskmaster/internal/store"
	"github.com/kubev2v/taskmaster/internal/store/migrations"
)

var _ = Describe("Run handlers", func() {
	var (
		db     *sql.DB
		srv    *services.RunService
		router *gin.Engine
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
		router.ServeHTTP(w, req)
		return w
	}

	decodeRun := func(w *httptest.ResponseRecorder) v1.Run {
		var run v1.Run
		Expect(json.Unmarshal(w.Body.Bytes(), &run)).To(Succeed())
		return run
	}

	waitFinished := func(id string) v1.Run {
		var run v1.Run
		Eventually(func() string {
			w := do(http.MethodGet, "/api/v1/runs/"+id, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			run = decodeRun(w)
			return run.Status
		}, 5*time.Second, 10*time.Millisecond).ShouldNot(Equal("running"))
		return run
	}

	BeforeEach(func() {
		ctx := context.Background()
		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		cfg := config.NewConfigurationWithDefaults()
		srv = services.NewRunService(store.NewStore(db), cfg.Engine, 2, nil)

		router = gin.New()
		handlers.RegisterHandlers(router.Group("/api/v1"), handlers.New(srv))
	})

	AfterEach(func() {
		srv.Close()
		db.Close()
	})

	Describe("POST /runs/sum", func() {
		// Given a valid sum request
		// When it is posted
		// Then the run is accepted and eventually completes with the sum
		It("should accept and complete a sum run", func() {
			// Act
			w := do(http.MethodPost, "/api/v1/runs/sum", `{"size": 1000, "chunk": 7, "workers": 3}`)

			// Assert
			Expect(w.Code).To(Equal(http.StatusAccepted))
			run := decodeRun(w)
			Expect(run.Workload).To(Equal("sum"))
			Expect(run.Status).To(Equal("running"))

			final := waitFinished(run.Id)
			Expect(final.Status).To(Equal("completed"))
			Expect(final.Result).NotTo(BeNil())
			Expect(*final.Result).To(Equal("499500"))
			Expect(final.FinishedAt).NotTo(BeNil())
		})

		DescribeTable("should reject invalid bodies",
			func(body string) {
				w := do(http.MethodPost, "/api/v1/runs/sum", body)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
			},
			Entry("missing size", `{"chunk": 10}`),
			Entry("negative workers", `{"size": 10, "workers": -1}`),
			Entry("not json", `size=10`),
		)

		// Given sizes and worker counts the service cannot honour
		// When the run is requested
		// Then it is refused before anything is recorded
		DescribeTable("should refuse runs beyond the engine limits",
			func(body, field string) {
				w := do(http.MethodPost, "/api/v1/runs/sum", body)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(w.Body.String()).To(ContainSubstring("invalid " + field))
				list := do(http.MethodGet, "/api/v1/runs", "")
				Expect(list.Body.String()).To(ContainSubstring(`"total":0`))
			},
			Entry("sum overflowing 64 bits", `{"size": 8589934592}`, "size"),
			Entry("size above the int64 range", `{"size": 18446744073709551615}`, "size"),
			Entry("too many workers", `{"size": 10, "workers": 100000000}`, "workers"),
		)
	})

	Describe("POST /runs/median", func() {
		It("should accept and complete a median run", func() {
			w := do(http.MethodPost, "/api/v1/runs/median", `{"rows": 20, "cols": 20, "radius": 2, "seed": 3}`)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			final := waitFinished(decodeRun(w).Id)
			Expect(final.Status).To(Equal("completed"))
			Expect(final.Size).To(BeEquivalentTo(400))
		})

		It("should reject an empty field", func() {
			w := do(http.MethodPost, "/api/v1/runs/median", `{"rows": 0, "cols": 20}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("should refuse fields and worker counts beyond the engine limits",
			func(body, field string) {
				w := do(http.MethodPost, "/api/v1/runs/median", body)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(w.Body.String()).To(ContainSubstring("invalid " + field))
			},
			Entry("field too large", `{"rows": 1048576, "cols": 1048576}`, "field"),
			Entry("cell count overflowing an int", `{"rows": 4611686018427387904, "cols": 4}`, "field"),
			Entry("too many workers", `{"rows": 4, "cols": 4, "workers": 100000000}`, "workers"),
		)
	})

	Describe("GET /runs", func() {
		BeforeEach(func() {
			for range 3 {
				w := do(http.MethodPost, "/api/v1/runs/sum", `{"size": 100}`)
				Expect(w.Code).To(Equal(http.StatusAccepted))
				waitFinished(decodeRun(w).Id)
			}
		})

		It("should paginate the ledger", func() {
			w := do(http.MethodGet, "/api/v1/runs?pageSize=2&page=2", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp v1.RunListResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(3))
			Expect(resp.Page).To(Equal(2))
			Expect(resp.PageCount).To(Equal(2))
			Expect(resp.Runs).To(HaveLen(1))
		})

		It("should filter by status and workload", func() {
			w := do(http.MethodGet, "/api/v1/runs?status=failed&workload=sum", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp v1.RunListResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(0))
			Expect(resp.PageCount).To(Equal(1))
			Expect(resp.Runs).To(BeEmpty())
		})

		It("should reject an unknown status", func() {
			w := do(http.MethodGet, "/api/v1/runs?status=paused", "")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /runs/:id", func() {
		It("should return 404 for an unknown run", func() {
			w := do(http.MethodGet, "/api/v1/runs/"+uuid.NewString(), "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should return 400 for a malformed id", func() {
			w := do(http.MethodGet, "/api/v1/runs/not-a-uuid", "")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /runs/:id", func() {
		// Given an endless sum run
		// When it is deleted
		// Then it ends cancelled
		It("should cancel a running computation", func() {
			// Arrange
			w := do(http.MethodPost, "/api/v1/runs/sum", `{"size": 6074001000, "chunk": 1000, "workers": 2}`)
			Expect(w.Code).To(Equal(http.StatusAccepted))
			id := decodeRun(w).Id

			// Act
			w = do(http.MethodDelete, "/api/v1/runs/"+id, "")

			// Assert
			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(waitFinished(id).Status).To(Equal("cancelled"))
		})

		It("should return 409 for a finished run", func() {
			w := do(http.MethodPost, "/api/v1/runs/sum", `{"size": 10}`)
			id := decodeRun(w).Id
			waitFinished(id)

			w = do(http.MethodDelete, "/api/v1/runs/"+id, "")

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("should return 404 for an unknown run", func() {
			w := do(http.MethodDelete, "/api/v1/runs/"+uuid.NewString(), "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
