package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/school-portal-api/internal/metrics"
	"github.com/JakeFAU/school-portal-api/internal/school"
)

const (
	// listLimit caps GET /status.
	listLimit      = 1000
	maxBodyBytes   = 1 << 20
	publishTimeout = 5 * time.Second
)

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": s.cfg.API.WelcomeMessage})
}

func (s *Server) createStatusCheck(w http.ResponseWriter, r *http.Request) {
	var req school.StatusCheckCreate
	if status, msg, ok := decodeBody(w, r, &req); !ok {
		s.writeError(w, status, msg)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.idGen.NewID()
	if err != nil {
		s.logger.Error("generate status check id", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create status check")
		return
	}
	check := school.NewStatusCheck(id, req.ClientName, s.clock.Now())
	if err := s.store.InsertStatusCheck(r.Context(), check); err != nil {
		metrics.ObserveStatusCheckCreated("error")
		s.logger.Error("insert status check",
			zap.String("id", check.ID),
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "failed to create status check")
		return
	}
	metrics.ObserveStatusCheckCreated("ok")

	s.publishCreated(r.Context(), check)
	s.writeJSON(w, http.StatusOK, check)
}

// publishCreated emits the created event. Failures are logged and otherwise
// ignored.
func (s *Server) publishCreated(ctx context.Context, check school.StatusCheck) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := school.StatusCheckEvent{Type: school.EventStatusCheckCreated, StatusCheck: check}
	msgID, err := s.publisher.Publish(ctx, school.EventStatusCheckCreated, event)
	if err != nil {
		metrics.ObserveEventPublished("error")
		s.logger.Warn("publish status check event", zap.String("id", check.ID), zap.Error(err))
		return
	}
	metrics.ObserveEventPublished("ok")
	s.logger.Debug("published status check event",
		zap.String("id", check.ID),
		zap.String("message_id", msgID),
	)
}

func (s *Server) listStatusChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := s.store.ListStatusChecks(r.Context(), listLimit)
	if err != nil {
		s.logger.Error("list status checks",
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "failed to list status checks")
		return
	}
	if checks == nil {
		checks = []school.StatusCheck{}
	}
	s.writeJSON(w, http.StatusOK, checks)
}

func (s *Server) listNotices(w http.ResponseWriter, r *http.Request) {
	items := s.notices.Notices(r.Context())
	if items == nil {
		items = []school.Notice{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

// decodeBody reads one JSON document. Malformed JSON is a 400; a value of
// the wrong type is a 422.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) (int, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return 0, "", true
	}
	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity, "invalid type for field " + typeErr.Field, false
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge, "request body too large", false
	default:
		return http.StatusBadRequest, "invalid JSON", false
	}
}
