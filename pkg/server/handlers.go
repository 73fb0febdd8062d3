package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/store"
	"github.com/variety-jones/cptracker/pkg/tracker"
)

type addRequest struct {
	Username string `json:"username"`
}

type bulkImportRequest struct {
	Usernames []string `json:"usernames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type contestsResponse struct {
	Message string           `json:"message"`
	Data    []models.Contest `json:"data"`
}

type cronResponse struct {
	Success   bool                `json:"success"`
	Timestamp string              `json:"timestamp"`
	Updated   int                 `json:"updated"`
	Total     int                 `json:"total"`
	Errors    []models.FailedItem `json:"errors"`
	Error     string              `json:"error,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addUser(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return fail(c, http.StatusBadRequest, tracker.ErrInvalidUsername.Error())
	}

	user, err := s.service.Add(c.Request().Context(), req.Username)
	if err != nil {
		zap.S().Errorf("adding user %s failed with error %v", req.Username, err)
		if errors.Is(err, tracker.ErrDuplicateUser) {
			return fail(c, http.StatusBadRequest, tracker.ErrDuplicateUser.Error())
		}
		return fail(c, statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) updateAll(c echo.Context) error {
	result, err := s.service.UpdateAll(c.Request().Context())
	if err != nil {
		zap.S().Errorf("updating users failed with error %v", err)
		return fail(c, http.StatusInternalServerError, "failed to update users")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) bulkImport(c echo.Context) error {
	var req bulkImportRequest
	if err := c.Bind(&req); err != nil || len(req.Usernames) == 0 {
		return fail(c, http.StatusBadRequest, tracker.ErrNoUsernames.Error())
	}

	result, err := s.service.BulkImport(c.Request().Context(), req.Usernames)
	if err != nil {
		zap.S().Errorf("bulk import failed with error %v", err)
		return fail(c, http.StatusInternalServerError, "failed to import users")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) checkQuestion(c echo.Context) error {
	// echo routes on RawPath when the request has one and on the decoded
	// Path otherwise, so the param needs unescaping only in the first case.
	question := c.Param("question")
	if c.Request().URL.RawPath != "" {
		if decoded, err := url.PathUnescape(question); err == nil {
			question = decoded
		}
	}

	statuses, err := s.service.CheckSolved(c.Request().Context(), question)
	if err != nil {
		zap.S().Errorf("checking question %q failed with error %v", question, err)
		return fail(c, http.StatusInternalServerError, "failed to check question")
	}
	return c.JSON(http.StatusOK, statuses)
}

func (s *Server) listUsers(c echo.Context) error {
	users, err := s.service.ListRanked(c.Request().Context())
	if err != nil {
		zap.S().Errorf("listing users failed with error %v", err)
		return fail(c, http.StatusInternalServerError, "failed to fetch users")
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) getUser(c echo.Context) error {
	username := c.Param("username")
	user, err := s.service.Get(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		zap.S().Errorf("fetching user %s failed with error %v", username, err)
		return fail(c, statusFor(err), "failed to fetch user")
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c echo.Context) error {
	username := c.Param("username")
	if err := s.service.Delete(c.Request().Context(), username); err != nil {
		zap.S().Errorf("deleting user %s failed with error %v", username, err)
		return fail(c, statusFor(err), "failed to delete user")
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// cronUpdate is the trigger used by an external cron. Outside production a
// missing or wrong bearer token is tolerated.
func (s *Server) cronUpdate(c echo.Context) error {
	if s.opts.RequireCronSecret {
		want := "Bearer " + s.opts.CronSecret
		if s.opts.CronSecret == "" || c.Request().Header.Get(echo.HeaderAuthorization) != want {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
	}

	result, err := s.service.UpdateAll(c.Request().Context())
	resp := cronResponse{
		Success:   err == nil,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Updated:   result.Updated,
		Total:     result.Listed,
		Errors:    result.Failed,
	}
	if resp.Errors == nil {
		resp.Errors = []models.FailedItem{}
	}
	if err != nil {
		zap.S().Errorf("cron ranking update failed with error %v", err)
		resp.Error = err.Error()
		return c.JSON(http.StatusInternalServerError, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listContests(c echo.Context) error {
	contests, err := s.opts.Contests.All(c.Request().Context())
	if err != nil {
		zap.S().Errorf("listing contests failed with error %v", err)
		return fail(c, http.StatusBadGateway, "failed to fetch contest data")
	}
	return c.JSON(http.StatusOK, contestsResponse{
		Message: "Contests fetched successfully",
		Data:    contests,
	})
}

func (s *Server) upcomingContests(c echo.Context) error {
	contests, err := s.opts.Contests.Upcoming(c.Request().Context())
	if err != nil {
		zap.S().Errorf("listing upcoming contests failed with error %v", err)
		return fail(c, http.StatusBadGateway, "failed to fetch contest data")
	}
	return c.JSON(http.StatusOK, contestsResponse{
		Message: "Upcoming contests fetched successfully",
		Data:    contests,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidUsername), errors.Is(err, tracker.ErrNoUsernames),
		errors.Is(err, tracker.ErrDuplicateUser):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}
