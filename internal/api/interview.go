package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/interview"
)

// Interviewer is the service surface the handlers need.
type Interviewer interface {
	Start(ctx context.Context, in interview.StartInput) (*interview.StartResult, error)
	Answer(ctx context.Context, sessionID, message string) (*interview.AnswerResult, error)
	Retry(ctx context.Context, sessionID string) (*interview.AnswerResult, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	End(ctx context.Context, sessionID string) (*interview.EndResult, error)
	Snapshot(ctx context.Context, sessionID string) (*interview.Snapshot, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Summary, error)
}

// Handler serves the interview endpoints.
type Handler struct {
	svc Interviewer
}

// NewHandler creates a Handler.
func NewHandler(svc Interviewer) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the interview routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/interview/start", h.Start)
		r.Post("/interview", h.Answer)
		r.Post("/interview/retry", h.Retry)
		r.Get("/interview", h.Session)
		r.Post("/interview/end", h.End)
		r.Get("/interview/evaluation", h.Evaluation)
		r.Get("/sessions", h.Sessions)
	})
}

type startRequest struct {
	Role   string `json:"role"`
	Level  string `json:"level"`
	UserID string `json:"userId"`
}

// Start opens a session.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.Start(r.Context(), interview.StartInput{
		UserID: req.UserID,
		Role:   req.Role,
		Level:  req.Level,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, res)
}

type answerRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Answer submits the candidate's reply and returns the next turn.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, MsgSessionID)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "Message is required")
		return
	}

	res, err := h.svc.Answer(r.Context(), req.SessionID, req.Message)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeAnswer(w, res)
}

type retryRequest struct {
	SessionID string `json:"sessionId"`
}

// Retry generates the interviewer reply for an answer whose reply failed.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	var req retryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, MsgSessionID)
		return
	}
	res, err := h.svc.Retry(r.Context(), req.SessionID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	writeAnswer(w, res)
}

func writeAnswer(w http.ResponseWriter, res *interview.AnswerResult) {
	out := *res
	out.Difficulty = domain.Round1(out.Difficulty)
	out.Metric = out.Metric.Rounded()
	JSON(w, http.StatusOK, out)
}

type sessionView struct {
	SessionID          string                     `json:"sessionId"`
	UserID             string                     `json:"userId"`
	Role               string                     `json:"role"`
	Level              domain.Level               `json:"level"`
	Status             domain.Status              `json:"status"`
	CurrentDifficulty  float64                    `json:"currentDifficulty"`
	Messages           []domain.Message           `json:"messages"`
	PerformanceHistory []domain.PerformanceMetric `json:"performanceHistory"`
	Evaluation         *domain.Evaluation         `json:"evaluation,omitempty"`
	CreatedAt          time.Time                  `json:"createdAt"`
	EndedAt            *time.Time                 `json:"endedAt,omitempty"`
	DurationSeconds    float64                    `json:"durationSeconds,omitempty"`
}

func newSessionView(s *domain.Session) sessionView {
	v := sessionView{
		SessionID:          s.ID,
		UserID:             s.UserID,
		Role:               s.Role,
		Level:              s.Level,
		Status:             s.Status,
		CurrentDifficulty:  domain.Round1(s.CurrentDifficulty),
		Messages:           s.Messages,
		PerformanceHistory: make([]domain.PerformanceMetric, len(s.PerformanceHistory)),
		CreatedAt:          s.CreatedAt,
		EndedAt:            s.EndedAt,
		DurationSeconds:    s.Duration.Seconds(),
	}
	if v.Messages == nil {
		v.Messages = []domain.Message{}
	}
	for i, m := range s.PerformanceHistory {
		v.PerformanceHistory[i] = m.Rounded()
	}
	if s.Evaluation != nil {
		ev := s.Evaluation.Rounded()
		v.Evaluation = &ev
	}
	return v
}

// Session returns the full session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if strings.TrimSpace(id) == "" {
		Error(w, http.StatusBadRequest, MsgSessionID)
		return
	}
	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newSessionView(sess))
}

type endRequest struct {
	SessionID string `json:"sessionId"`
}

type endResponse struct {
	SessionID       string            `json:"sessionId"`
	EndedAt         time.Time         `json:"endedAt"`
	DurationSeconds float64           `json:"durationSeconds"`
	Evaluation      domain.Evaluation `json:"evaluation"`
}

// End completes a session and returns its evaluation.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, MsgSessionID)
		return
	}
	res, err := h.svc.End(r.Context(), req.SessionID)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, endResponse{
		SessionID:       res.SessionID,
		EndedAt:         res.EndedAt,
		DurationSeconds: res.Duration.Seconds(),
		Evaluation:      res.Evaluation.Rounded(),
	})
}

// Evaluation returns the live snapshot of a session.
func (h *Handler) Evaluation(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if strings.TrimSpace(id) == "" {
		Error(w, http.StatusBadRequest, MsgSessionID)
		return
	}
	snap, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snap.Rounded())
}

// Sessions lists a user's sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		userID = interview.AnonymousUser
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.svc.List(r.Context(), userID, limit)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	for i := range list {
		list[i].CurrentDifficulty = domain.Round1(list[i].CurrentDifficulty)
		if list[i].OverallScore != nil {
			v := domain.Round1(*list[i].OverallScore)
			list[i].OverallScore = &v
		}
	}
	if list == nil {
		list = []domain.Summary{}
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": list})
}
