package http

import (
	"net/http"
)

func (s *Server) handleCreateCouple(w http.ResponseWriter, r *http.Request) {
	var req createCoupleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create_couple", err)
		return
	}
	c, err := s.couples.CreateCouple(r.Context(), req.toCouple())
	if err != nil {
		writeError(w, r, "create_couple", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/couples/"+c.ID).
		Body(newCoupleView(c, c.Categories)).
		Write(w)
}

// handleGetCouple lists categories most used first.
func (s *Server) handleGetCouple(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "get_couple", err)
		return
	}
	cats := s.couples.Categories(r.Context(), sess.Couple)
	NewJSONResponse().Body(newCoupleView(sess.Couple, cats)).Write(w)
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, "month_report", err)
		return
	}
	gen := s.generation(r.PathValue("coupleID"))
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "month_report", err)
		return
	}
	NewJSONResponse().Body(newMonthReportView(ym, s.report(r.Context(), sess, gen, ym))).Write(w)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, "balance", err)
		return
	}
	gen := s.generation(r.PathValue("coupleID"))
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "balance", err)
		return
	}
	rep := s.report(r.Context(), sess, gen, ym)
	NewJSONResponse().Body(newBalanceView(sess.Couple, rep.Balance)).Write(w)
}

// handleSettle answers 201 when a settlement was written and 200 when there
// was nothing outstanding or another request was already settling.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, "settle", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "settle", err)
		return
	}
	res, err := s.settle.SettleBalance(r.Context(), sess, ym)
	if err != nil {
		writeError(w, r, "settle", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	status := http.StatusOK
	if res.Recorded {
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Body(newSettlementView(sess.Couple, res)).Write(w)
}

func (s *Server) handleUndoSettlement(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		writeError(w, r, "undo_settlement", err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, "undo_settlement", err)
		return
	}
	res, err := s.settle.UndoSettlement(r.Context(), sess, ym)
	if err != nil {
		writeError(w, r, "undo_settlement", err)
		return
	}
	s.invalidate(r.Context(), sess.Couple.ID)
	NewJSONResponse().Body(newSettlementView(sess.Couple, res)).Write(w)
}
