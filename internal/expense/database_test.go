package expense

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-tracker/internal/category"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("expenses", func() {
		var expense *Expense

		BeforeEach(func() {
			expense = &Expense{
				ID:          "test-id",
				UserID:      "alice",
				Amount:      27,
				Currency:    "USD",
				Description: "Airport taxi",
				Date:        "2024-03-15",
				Category:    category.Transportation,
				CreatedAt:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			}
			Expect(db.SaveExpense(expense)).To(Succeed())
		})

		It("round-trips a saved expense", func() {
			got, err := db.GetExpense("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).To(Equal("alice"))
			Expect(got.Amount).To(Equal(27.0))
			Expect(got.Category).To(Equal(category.Transportation))
			Expect(got.CreatedAt).To(BeTemporally("==", expense.CreatedAt))
		})

		It("returns ErrNotFound for a missing expense", func() {
			_, err := db.GetExpense("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("persists across reopening", func() {
			Expect(db.Close()).To(Succeed())
			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())

			got, err := db.GetExpense("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Description).To(Equal("Airport taxi"))
		})

		It("deletes an expense", func() {
			Expect(db.DeleteExpense("test-id")).To(Succeed())
			_, err := db.GetExpense("test-id")
			Expect(err).To(MatchError(ErrNotFound))
		})

		Describe("ListExpenses", func() {
			BeforeEach(func() {
				Expect(db.SaveExpense(&Expense{ID: "older", UserID: "alice", Date: "2024-01-02"})).To(Succeed())
				Expect(db.SaveExpense(&Expense{ID: "newer", UserID: "alice", Date: "2024-05-20"})).To(Succeed())
				Expect(db.SaveExpense(&Expense{ID: "other", UserID: "bob", Date: "2024-04-01"})).To(Succeed())
			})

			It("returns the user's expenses by date descending", func() {
				expenses, err := db.ListExpenses("alice")
				Expect(err).NotTo(HaveOccurred())

				ids := make([]string, 0, len(expenses))
				for _, e := range expenses {
					ids = append(ids, e.ID)
				}
				Expect(ids).To(Equal([]string{"newer", "test-id", "older"}))
			})

			It("returns an empty list for an unknown user", func() {
				expenses, err := db.ListExpenses("carol")
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).NotTo(BeNil())
				Expect(expenses).To(BeEmpty())
			})
		})
	})

	Describe("currency preferences", func() {
		It("returns empty when unset", func() {
			code, err := db.GetCurrency("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(BeEmpty())
		})

		It("stores a preference per user", func() {
			Expect(db.SaveCurrency("alice", "EUR")).To(Succeed())
			Expect(db.SaveCurrency("bob", "JPY")).To(Succeed())

			Expect(db.GetCurrency("alice")).To(Equal("EUR"))
			Expect(db.GetCurrency("bob")).To(Equal("JPY"))
		})
	})
})
