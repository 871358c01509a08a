package http

import (
	"net/http"

	"casal/internal/core"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, "list_incomes", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "list_incomes", err)
		return
	}
	out := []incomeView{}
	for _, in := range sess.Incomes {
		if in.YearMonth == ym {
			out = append(out, newIncomeView(in))
		}
	}
	NewJSONResponse().Body(map[string]any{
		"year_month": ym.String(),
		"incomes":    out,
	}).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req createIncomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_income", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "create_income", err)
		return
	}
	saved, err := s.incomes.AddIncome(r.Context(), sess, req.toIncome())
	if err != nil {
		writeError(w, r, "create_income", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(newIncomeView(saved)).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req updateIncomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update_income", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, "update_income", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "update_income", err)
		return
	}
	var updated core.Income
	if updated, err = s.incomes.UpdateIncome(r.Context(), sess, r.PathValue("id"), patch); err != nil {
		writeError(w, r, "update_income", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().Body(newIncomeView(updated)).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "delete_income", err)
		return
	}
	if err := s.incomes.RemoveIncome(r.Context(), sess, r.PathValue("id")); err != nil {
		writeError(w, r, "delete_income", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
