package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/apiclient"
	"github.com/ehr/patientor/internal/platform/websocket"
	"github.com/ehr/patientor/internal/ui/patientdetail"
	"github.com/ehr/patientor/internal/ui/session"
	"github.com/ehr/patientor/pkg/pagination"
)

const version = "0.1.0"

// Form actions posted by the entry form buttons.
const (
	actionChangeType = "change-type"
	actionSubmit     = "submit"
	actionCancel     = "cancel"
)

type Handler struct {
	shell    *Shell
	patients *patient.Service
	pub      websocket.EventPublisher
	pageSize int
	logger   zerolog.Logger
}

func NewHandler(shell *Shell, patients *patient.Service, pub websocket.EventPublisher, pageSize int, logger zerolog.Logger) *Handler {
	if pub == nil {
		pub = websocket.NopPublisher{}
	}
	return &Handler{
		shell:    shell,
		patients: patients,
		pub:      pub,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "web").Logger(),
	}
}

// RegisterRoutes mounts the pages. mw wraps the page routes only, so the
// health probe and static assets never open a view session.
func (h *Handler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)
	e.GET("/", h.ListPatients, mw...)

	g := e.Group("/patients", mw...)
	g.POST("", h.CreatePatient)
	g.GET("/:id", h.ShowPatient)
	g.POST("/:id/entries/new", h.OpenEntryForm)
	g.POST("/:id/entries", h.EntryFormAction)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

type listPage struct {
	Chrome  Chrome
	Page    pagination.Page[*patient.Patient]
	Genders []patient.Gender
	Form    patient.FormValues
	Error   string
}

func (h *Handler) ListPatients(c echo.Context) error {
	sess, err := viewSession(c)
	if err != nil {
		return err
	}
	sess.LeaveDetail()
	return h.renderList(c, http.StatusOK, patient.FormValues{Gender: patient.GenderOther}, "")
}

func (h *Handler) renderList(c echo.Context, status int, form patient.FormValues, msg string) error {
	page := pagination.Slice(h.shell.Patients(), pagination.FromContext(c, h.pageSize), "/")
	return c.Render(status, "list", listPage{
		Chrome:  h.chrome(c, "", websocket.TopicPatients, ""),
		Page:    page,
		Genders: patient.Genders(),
		Form:    form,
		Error:   msg,
	})
}

func (h *Handler) CreatePatient(c echo.Context) error {
	fv := patient.FormValues{
		Name:        c.FormValue("name"),
		Occupation:  c.FormValue("occupation"),
		DateOfBirth: c.FormValue("dateOfBirth"),
		SSN:         c.FormValue("ssn"),
		Gender:      patient.Gender(c.FormValue("gender")),
	}

	p, err := h.patients.CreatePatient(c.Request().Context(), fv)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to create patient")
		msg := apiclient.ErrorMessage(err)
		status := http.StatusBadGateway
		if errors.Is(err, patient.ErrInvalid) {
			msg = err.Error()
			status = http.StatusBadRequest
		}
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		return h.renderList(c, status, fv, msg)
	}

	h.shell.AddPatient(p)
	if err := h.pub.Publish(c.Request().Context(), websocket.NewEvent(websocket.EventPatientsChanged, websocket.TopicPatients, map[string]string{"patientId": p.ID})); err != nil {
		h.logger.Warn().Err(err).Msg("failed to publish patient list change")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

type patientPage struct {
	Chrome   Chrome
	Snapshot patientdetail.Snapshot
}

func (h *Handler) ShowPatient(c echo.Context) error {
	ctrl, err := h.mount(c)
	if err != nil {
		return err
	}
	snap, err := ctrl.Snapshot()
	if err != nil {
		return err
	}

	title := ""
	if snap.Patient != nil {
		title = snap.Patient.Name
	}
	sess, _ := session.FromContext(c)
	return c.Render(http.StatusOK, "patient", patientPage{
		Chrome:   h.chrome(c, title, websocket.ViewTopic(sess.TopicID), snap.State.String()),
		Snapshot: snap,
	})
}

func (h *Handler) OpenEntryForm(c echo.Context) error {
	ctrl, err := h.mount(c)
	if err != nil {
		return err
	}
	if err := ctrl.OpenForm(); err != nil && !errors.Is(err, patientdetail.ErrNotLoaded) {
		return err
	}
	return h.backToPatient(c)
}

func (h *Handler) EntryFormAction(c echo.Context) error {
	ctrl, err := h.mount(c)
	if err != nil {
		return err
	}
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}

	action := values.Get("action")
	switch action {
	case actionChangeType, actionSubmit, "":
		if err := h.restoreForm(ctrl, values); err != nil {
			return err
		}
	case actionCancel:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown form action")
	}

	switch action {
	case actionChangeType:
		err = ctrl.Update(values)
	case actionCancel:
		if err = ctrl.Cancel(); errors.Is(err, patientdetail.ErrFormClosed) {
			err = nil
		}
	default:
		// A rejected submit leaves the form open with a notice; both are
		// part of the page rendered after the redirect.
		if err = ctrl.Submit(c.Request().Context(), values); err != nil {
			h.logger.Info().Err(err).Str("patient_id", ctrl.PatientID()).Msg("entry rejected")
			err = nil
		}
	}
	if err != nil {
		return err
	}
	return h.backToPatient(c)
}

// restoreForm makes sure the view holds an open form for the posted patient.
// The view is shared by every tab of a browser, so another tab may have
// switched patient and closed the form this post belongs to.
func (h *Handler) restoreForm(ctrl *patientdetail.Controller, values url.Values) error {
	err := ctrl.RestoreForm(values)
	if errors.Is(err, patientdetail.ErrNotLoaded) {
		h.logger.Warn().Str("patient_id", ctrl.PatientID()).Msg("entry posted for a patient that is not loaded")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "The patient record could not be loaded. The entry was not saved.")
	}
	return err
}

// mount points the view's detail controller at the :id route parameter. An
// evicted controller is replaced by a fresh one.
func (h *Handler) mount(c echo.Context) (*patientdetail.Controller, error) {
	sess, err := viewSession(c)
	if err != nil {
		return nil, err
	}
	id := c.Param("id")
	ctrl := sess.Detail()
	err = ctrl.Mount(c.Request().Context(), id)
	if errors.Is(err, patientdetail.ErrUnmounted) {
		sess.LeaveDetail()
		ctrl = sess.Detail()
		err = ctrl.Mount(c.Request().Context(), id)
	}
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (h *Handler) backToPatient(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/patients/"+c.Param("id"))
}

func (h *Handler) chrome(c echo.Context, title, topic, state string) Chrome {
	rid, _ := c.Get("request_id").(string)
	return Chrome{Title: title, Topics: topic, State: state, RequestID: rid}
}

func viewSession(c echo.Context) (*session.Session, error) {
	sess, ok := session.FromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "view session missing")
	}
	return sess, nil
}
