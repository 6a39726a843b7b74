package folio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/contact"
)

const (
	contactSession = "contact_form"
	snapshotKey    = "snapshot"
)

// contactResponse is the body of every contact endpoint. Error and Field are
// set when the request was refused so the shape matches APIError.
type contactResponse struct {
	State          contact.State `json:"state"`
	Step           *contact.Step `json:"step,omitempty"`
	Steps          int           `json:"steps"`
	Progress       float64       `json:"progress"`
	Draft          contact.Draft `json:"draft"`
	Error          string        `json:"error,omitempty"`
	Field          string        `json:"field,omitempty"`
	DismissAfterMs int64         `json:"dismissAfterMs,omitempty"`
	CSRFToken      string        `json:"csrfToken,omitempty"`
}

type answerRequest struct {
	Field string `json:"field" form:"field"`
	Value string `json:"value" form:"value"`
}

func (a *App) newWorkflow(c echo.Context) *contact.Workflow {
	source := c.Request().Referer()
	if source == "" {
		source = a.Config.URL
	}
	return contact.New(nil, a.submitter,
		contact.WithSource(source),
		contact.WithUserAgent(c.Request().UserAgent()),
		contact.WithLogger(a.Log),
	)
}

// loadWorkflow rebuilds the visitor's form from the session. A missing,
// unreadable or closed snapshot starts a fresh form.
func (a *App) loadWorkflow(c echo.Context) (*contact.Workflow, *sessions.Session) {
	sess, err := session.Get(contactSession, c)
	if err != nil {
		// gorilla hands back a fresh session alongside decode errors
		a.Log.Debug().Err(err).Msg("folio: contact session reset")
	}
	if sess == nil {
		sess = sessions.NewSession(a.sessions, contactSession)
	}
	w := a.newWorkflow(c)
	raw, ok := sess.Values[snapshotKey].(string)
	if !ok {
		return w, sess
	}
	var snap contact.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		a.Log.Debug().Err(err).Msg("folio: discarding unreadable contact snapshot")
		return w, sess
	}
	if snap.Phase == contact.Closed {
		return w, sess
	}
	if err := w.Restore(snap); err != nil {
		a.Log.Debug().Err(err).Msg("folio: discarding contact snapshot")
		return a.newWorkflow(c), sess
	}
	return w, sess
}

func (a *App) saveWorkflow(c echo.Context, sess *sessions.Session, w *contact.Workflow) error {
	b, err := json.Marshal(w.Snapshot())
	if err != nil {
		return err
	}
	sess.Values[snapshotKey] = string(b)
	return sess.Save(c.Request(), c.Response())
}

func (a *App) clearWorkflow(c echo.Context, sess *sessions.Session) error {
	delete(sess.Values, snapshotKey)
	return sess.Save(c.Request(), c.Response())
}

func (a *App) contactState(c echo.Context, w *contact.Workflow) contactResponse {
	st := w.State()
	resp := contactResponse{
		State:     st,
		Steps:     len(w.Steps()),
		Progress:  w.Progress(),
		Draft:     w.Draft(),
		CSRFToken: CsrfToken(c),
	}
	if st.Phase != contact.Closed {
		step := w.Current()
		resp.Step = &step
	}
	if st.Phase == contact.Succeeded {
		resp.DismissAfterMs = w.DismissAfter().Milliseconds()
	}
	return resp
}

// workflowError maps a refused workflow call to a status code.
func workflowError(err error) int {
	switch {
	case errors.Is(err, contact.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, contact.ErrBusy),
		errors.Is(err, contact.ErrSubmitted),
		errors.Is(err, contact.ErrClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *App) handleContactState(c echo.Context) error {
	w, sess := a.loadWorkflow(c)
	if err := a.saveWorkflow(c, sess, w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.contactState(c, w))
}

func (a *App) handleContactSteps(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]contact.Step{
		"steps": a.newWorkflow(c).Steps(),
	})
}

func (a *App) handleContactAnswer(c echo.Context) error {
	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return NewAPIError(http.StatusBadRequest, "invalid request body")
	}
	if req.Field == "" {
		apiErr := NewAPIError(http.StatusBadRequest, "field is required")
		apiErr.Field = "field"
		return apiErr
	}

	w, sess := a.loadWorkflow(c)
	if err := w.Set(req.Field, req.Value); err != nil {
		apiErr := NewAPIError(workflowError(err), err.Error())
		apiErr.Field = req.Field
		return apiErr
	}
	if err := a.saveWorkflow(c, sess, w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.contactState(c, w))
}

// handleContactNext validates the current answer and moves forward. On the
// last step it delivers the form, bounded by the per-IP submit limit and the
// webhook timeout. Only attempts that pass validation count against the limit.
func (a *App) handleContactNext(c echo.Context) error {
	w, sess := a.loadWorkflow(c)

	st := w.State()
	if st.Step == len(w.Steps())-1 && w.Ready() == nil {
		if !a.limiter.Allow(c.RealIP()) {
			return NewAPIError(http.StatusTooManyRequests, "too many submissions, please try again later")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), a.Config.WebhookTimeout)
	defer cancel()

	st, err := w.Advance(ctx)
	if err != nil {
		var ve *contact.ValidationError
		var te *contact.TransportError
		switch {
		case errors.As(err, &ve):
			if err := a.saveWorkflow(c, sess, w); err != nil {
				return err
			}
			resp := a.contactState(c, w)
			resp.Error, resp.Field = ve.Message, ve.Field
			return c.JSON(http.StatusUnprocessableEntity, resp)
		case errors.As(err, &te) || st.Phase == contact.Failed:
			if err := a.saveWorkflow(c, sess, w); err != nil {
				return err
			}
			resp := a.contactState(c, w)
			resp.Error = st.Err
			return c.JSON(http.StatusBadGateway, resp)
		default:
			return NewAPIError(workflowError(err), err.Error())
		}
	}

	if st.Phase == contact.Succeeded {
		// The client dismisses after DismissAfterMs; the session forgets now.
		if err := a.clearWorkflow(c, sess); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, a.contactState(c, w))
	}
	if err := a.saveWorkflow(c, sess, w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.contactState(c, w))
}

func (a *App) handleContactBack(c echo.Context) error {
	w, sess := a.loadWorkflow(c)
	if _, err := w.Retreat(); err != nil {
		return NewAPIError(workflowError(err), err.Error())
	}
	if err := a.saveWorkflow(c, sess, w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.contactState(c, w))
}

// handleContactClose discards the visitor's draft.
func (a *App) handleContactClose(c echo.Context) error {
	w, sess := a.loadWorkflow(c)
	if err := w.Close(); err != nil {
		return NewAPIError(workflowError(err), err.Error())
	}
	if err := a.clearWorkflow(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.contactState(c, w))
}
