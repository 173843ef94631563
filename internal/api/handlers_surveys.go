package api

import (
	"net/http"

	"github.com/fastprodman/surveyledger/internal/repos/surveys"
	"github.com/fastprodman/surveyledger/internal/services/ledger"
)

type createSurveyRequest struct {
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Questions         []surveys.Question `json:"questions"`
	RewardPerResponse amountField        `json:"rewardPerResponse"`
	ParticipantQuota  int64              `json:"participantQuota"`
	TimeLimit         int64              `json:"timeLimit"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// CreateSurveyHandler handles POST /api/surveys: the survey is funded from
// the caller's wallet in the same step.
func (h *HandlerProvider) CreateSurveyHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req createSurveyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sv, err := h.ledger.FundSurvey(r.Context(), p.UserID, ledger.SurveyDraft{
		Title:             req.Title,
		Description:       req.Description,
		Questions:         req.Questions,
		RewardPerResponse: string(req.RewardPerResponse),
		ParticipantQuota:  req.ParticipantQuota,
		TimeLimitMinutes:  req.TimeLimit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSurveyResponse(sv))
}

// ListSurveysHandler handles GET /api/surveys.
func (h *HandlerProvider) ListSurveysHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	list, err := h.ledger.ListSurveys(r.Context(), p.UserID, p.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]surveyResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toListingResponse(l))
	}

	writeJSON(w, http.StatusOK, out)
}

// UpdateSurveyStatusHandler handles PATCH /api/surveys/{surveyId}/status.
func (h *HandlerProvider) UpdateSurveyStatusHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	surveyID, err := parseIDParam(r, "surveyId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sv, err := h.ledger.UpdateSurveyStatus(r.Context(), surveyID, surveys.Status(req.Status), p.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSurveyResponse(sv))
}

// AuditHandler handles GET /api/admin/audit.
func (h *HandlerProvider) AuditHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.Audit(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuditResponse(report))
}
