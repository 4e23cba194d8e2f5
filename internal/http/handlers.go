package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"kharcha/internal/core"
	applog "kharcha/internal/log"
	"kharcha/internal/services"
)

type entryResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type summaryResponse struct {
	User          string          `json:"user"`
	NewUser       bool            `json:"new_user"`
	RolledOver    bool            `json:"rolled_over"`
	Budget        float64         `json:"budget"`
	TotalExpenses float64         `json:"total_expenses"`
	Remaining     float64         `json:"remaining"`
	PercentUsed   float64         `json:"percent_used"`
	Status        string          `json:"status"`
	Ledger        []entryResponse `json:"ledger"`
}

func newSummaryResponse(sum services.Summary) summaryResponse {
	resp := summaryResponse{
		User:          sum.User,
		NewUser:       sum.NewUser,
		RolledOver:    sum.RolledOver,
		Budget:        sum.Status.Budget,
		TotalExpenses: sum.Status.TotalExpenses,
		Remaining:     sum.Status.Remaining,
		PercentUsed:   sum.Status.PercentUsed,
		Status:        sum.Status.Tier().String(),
		Ledger:        make([]entryResponse, 0, len(sum.Ledger.Entries)),
	}
	for _, e := range sum.Ledger.Entries {
		resp.Ledger = append(resp.Ledger, entryResponse{Category: e.Category, Total: e.Total})
	}
	return resp
}

type reportsResponse struct {
	User    string   `json:"user"`
	Reports []string `json:"reports"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	sum, err := s.tracker.Open(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, applog.OpOpen, err)
		return
	}
	status := http.StatusOK
	if sum.NewUser {
		status = http.StatusCreated
	}
	NewResponse().Status(status).JSON(newSummaryResponse(sum)).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.tracker.Summary(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().JSON(newSummaryResponse(sum)).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	s.handleBudget(w, r, s.tracker.SetInitialBudget)
}

func (s *Server) handleModifyBudget(w http.ResponseWriter, r *http.Request) {
	s.handleBudget(w, r, s.tracker.ModifyBudget)
}

type budgetFunc func(ctx context.Context, name string, amount float64) (services.Summary, error)

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request, apply budgetFunc) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	amount, err := p.Amount()
	if err != nil {
		UnprocessableEntityError("amount must be a non-negative number").Write(w)
		return
	}
	sum, err := apply(r.Context(), r.PathValue("name"), amount)
	if err != nil {
		s.writeError(w, r, applog.OpSetBudget, err)
		return
	}
	NewResponse().JSON(newSummaryResponse(sum)).Write(w)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	category := p.Get("category")
	if category == "" {
		UnprocessableEntityError("category is required").Write(w)
		return
	}
	amount, err := p.Amount()
	if err != nil {
		UnprocessableEntityError("amount must be a non-negative number").Write(w)
		return
	}

	sum, err := s.tracker.AddExpense(r.Context(), r.PathValue("name"), category, amount)
	if err != nil {
		s.writeError(w, r, applog.OpAppend, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseAdded(r.Context(), sum.User, category, amount,
			sum.Status.Budget, sum.Status.TotalExpenses, sum.Status.PercentUsed, sum.Status.Tier().String())
	NewResponse().Status(http.StatusCreated).JSON(newSummaryResponse(sum)).Write(w)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	names, err := s.tracker.Reports(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	user, _ := core.NormalizeUser(r.PathValue("name"))
	if names == nil {
		names = []string{}
	}
	NewResponse().JSON(reportsResponse{User: user, Reports: names}).Write(w)
}

// handleReadReport serves a report as text. ?download=1 turns it into an
// attachment.
func (s *Server) handleReadReport(w http.ResponseWriter, r *http.Request) {
	report := r.PathValue("report")
	body, err := s.tracker.Report(r.Context(), r.PathValue("name"), report)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	resp := NewResponse().Body("text/plain; charset=utf-8", body)
	if isTruthy(r.URL.Query().Get("download")) {
		resp.Attachment(report)
	}
	resp.Write(w)
}

// handleChart regenerates the user's charts and serves the requested one.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := core.ChartKind(strings.ToLower(r.PathValue("kind")))
	if kind != core.BarChart && kind != core.PieChart {
		NotFoundError("unknown chart kind").Write(w)
		return
	}
	paths, err := s.tracker.Charts(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, applog.OpRender, err)
		return
	}
	svg, err := os.ReadFile(paths.Path(kind))
	if err != nil {
		s.writeError(w, r, applog.OpRender, err)
		return
	}
	NewResponse().Body("image/svg+xml", svg).Write(w)
}

// writeError maps domain errors to 4xx responses; anything else is logged
// and answered with 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, core.ErrReportNotFound):
		NotFoundError("report not found").Write(w)
	case errors.Is(err, services.ErrChartsDisabled):
		NotFoundError("charts are disabled").Write(w)
	case errors.Is(err, core.ErrBudgetAlreadySet):
		ConflictError("budget already set, use PUT to modify it").Write(w)
	case services.IsUserError(err):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, op, applog.NewFields().WithUser(r.PathValue("name")))
		InternalServerError("internal error").Write(w)
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
