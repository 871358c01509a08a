package http

import (
	"net/http"
	"strconv"

	"casal/internal/core"
)

// handleListExpenses returns the month's live records, settlements included.
// ?include_deleted=true adds soft-deleted ones.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, "list_expenses", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "list_expenses", err)
		return
	}
	withDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))

	var out []core.Expense
	for _, e := range sess.Expenses {
		if e.YearMonth != ym || (e.Deleted && !withDeleted) {
			continue
		}
		out = append(out, e)
	}
	NewJSONResponse().Body(map[string]any{
		"year_month": ym.String(),
		"expenses":   newExpenseViews(out),
	}).Write(w)
}

// handleCreateExpense expands the request into its occurrences and returns
// all of them.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_expense", err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		writeError(w, r, "create_expense", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "create_expense", err)
		return
	}
	saved, err := s.expenses.CreateExpense(r.Context(), sess, draft)
	if err != nil {
		writeError(w, r, "create_expense", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]any{"expenses": newExpenseViews(saved)}).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update_expense", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, "update_expense", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "update_expense", err)
		return
	}
	updated, err := s.expenses.UpdateExpense(r.Context(), sess, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, "update_expense", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().Body(newExpenseView(updated)).Write(w)
}

// handleDeleteExpense soft deletes; ?purge=true removes the record for good.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "delete_expense", err)
		return
	}
	id := r.PathValue("id")
	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))
	if purge {
		err = s.expenses.PurgeExpense(r.Context(), sess, id)
	} else {
		err = s.expenses.DeleteExpense(r.Context(), sess, id)
	}
	if err != nil {
		writeError(w, r, "delete_expense", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
