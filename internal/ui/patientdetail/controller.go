// Package patientdetail drives the patient detail page of one browser view.
//
// The controller moves between Loading, Loaded and AddingEntry. A timed error
// notice overlays any state. Every fetch carries a generation number and its
// result is dropped unless the number is still current, so a slow response for
// a patient the view has already left never overwrites the newer one.
package patientdetail

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/platform/apiclient"
	"github.com/ehr/patientor/internal/platform/notification"
	"github.com/ehr/patientor/internal/platform/websocket"
	"github.com/ehr/patientor/internal/ui/entrydetail"
	"github.com/ehr/patientor/internal/ui/entryform"
)

var (
	ErrUnmounted  = errors.New("patient view is unmounted")
	ErrNotLoaded  = errors.New("patient is not loaded")
	ErrFormClosed = errors.New("entry form is not open")
)

type State int

const (
	StateLoading State = iota
	StateLoaded
	StateAddingEntry
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateAddingEntry:
		return "adding_entry"
	}
	return "unknown"
}

// PatientService is the part of the patient service the page needs.
type PatientService interface {
	GetPatient(ctx context.Context, id string) (*patient.Patient, error)
	AddEntry(ctx context.Context, patientID string, values entry.FormValues) (entry.Entry, error)
}

type Config struct {
	NotificationTTL time.Duration
	Form            entryform.Options
	// NotifierOptions are passed through to the notice timer.
	NotifierOptions []notification.Option
}

// Controller owns the detail page state of one view.
type Controller struct {
	svc    PatientService
	dir    *diagnosis.Directory
	pub    websocket.EventPublisher
	topic  string
	logger zerolog.Logger
	cfg    Config

	notifier *notification.Notifier

	mu        sync.Mutex
	patientID string
	patient   *patient.Patient
	state     State
	form      *entryform.Builder
	gen       uint64
	closed    bool
}

// New returns an unmounted controller publishing to the topic of viewID.
func New(svc PatientService, dir *diagnosis.Directory, pub websocket.EventPublisher, viewID string, logger zerolog.Logger, cfg Config) *Controller {
	if pub == nil {
		pub = websocket.NopPublisher{}
	}
	c := &Controller{
		svc:    svc,
		dir:    dir,
		pub:    pub,
		topic:  websocket.ViewTopic(viewID),
		logger: logger.With().Str("component", "patientdetail").Str("view_id", viewID).Logger(),
		cfg:    cfg,
	}
	opts := append([]notification.Option{notification.WithOnChange(c.noticeChanged)}, cfg.NotifierOptions...)
	c.notifier = notification.New(cfg.NotificationTTL, opts...)
	return c
}

// Mount shows patient id. When id differs from the mounted one the page
// resets to Loading, closes the form and fetches the record; mounting the
// same id again is a no-op. A failed fetch is logged and the page stays in
// Loading. The fetch outlives a cancelled ctx so a dropped request does not
// strand the view.
func (c *Controller) Mount(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if c.gen > 0 && id == c.patientID {
		c.mu.Unlock()
		return nil
	}
	c.patientID = id
	c.patient = nil
	c.state = StateLoading
	c.form = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.notifier.Clear()
	c.fetch(context.WithoutCancel(ctx), id, gen)
	return nil
}

func (c *Controller) fetch(ctx context.Context, id string, gen uint64) {
	p, err := c.svc.GetPatient(ctx, id)

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug().Str("patient_id", id).Uint64("generation", gen).Msg("discarding stale patient fetch")
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Error().Err(err).Str("patient_id", id).Msg("error fetching patient details")
		return
	}
	c.patient = p
	if c.state == StateLoading {
		c.state = StateLoaded
	}
	c.mu.Unlock()

	c.publish(websocket.EventPatientLoaded, map[string]string{"patientId": id})
}

// OpenForm mounts a fresh entry form. It is a no-op when the form is already
// open.
func (c *Controller) OpenForm() error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrUnmounted
	case c.state == StateAddingEntry:
		c.mu.Unlock()
		return nil
	case c.state != StateLoaded:
		c.mu.Unlock()
		return ErrNotLoaded
	}
	c.form = entryform.New(c.dir, c.submitEntry, c.closeForm, c.cfg.Form)
	c.state = StateAddingEntry
	c.mu.Unlock()

	c.publish(websocket.EventFormOpened, nil)
	return nil
}

// Update copies posted values into the open form; a changed "type" switches
// the variant.
func (c *Controller) Update(values url.Values) error {
	form, err := c.openForm()
	if err != nil {
		return err
	}
	form.Apply(values)
	return nil
}

// Submit applies values and submits the form. The returned error is the
// remote failure, already surfaced as a notice; the form stays open with its
// values.
func (c *Controller) Submit(ctx context.Context, values url.Values) error {
	form, err := c.openForm()
	if err != nil {
		return err
	}
	form.Apply(values)
	return form.Submit(ctx)
}

// Cancel closes the form without submitting.
func (c *Controller) Cancel() error {
	form, err := c.openForm()
	if err != nil {
		return err
	}
	form.Cancel()
	return nil
}

// RestoreForm reopens the entry form for a post this view no longer holds,
// such as a form another tab closed by switching patient. The posted type is
// selected before any values are applied so a reset on type change cannot
// discard them. It is a no-op while the form is open.
func (c *Controller) RestoreForm(values url.Values) error {
	c.mu.Lock()
	open := c.form != nil
	c.mu.Unlock()
	if open {
		return nil
	}

	if err := c.OpenForm(); err != nil {
		return err
	}
	form, err := c.openForm()
	if err != nil {
		return err
	}
	if t, ok := entry.ParseType(values.Get(entryform.FieldType)); ok {
		form.SetType(t)
	}
	return nil
}

func (c *Controller) openForm() (*entryform.Builder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrUnmounted
	}
	if c.form == nil {
		return nil, ErrFormClosed
	}
	return c.form, nil
}

// submitEntry is the form's submit callback.
func (c *Controller) submitEntry(ctx context.Context, values entry.FormValues) error {
	c.mu.Lock()
	id := c.patientID
	c.mu.Unlock()

	created, err := c.svc.AddEntry(ctx, id, values)
	if err != nil {
		msg := apiclient.ErrorMessage(err)
		c.logger.Warn().Err(err).Str("patient_id", id).Str("message", msg).Msg("add entry failed")
		c.notifier.Show(msg)
		return err
	}

	c.mu.Lock()
	if c.closed || id != c.patientID {
		c.mu.Unlock()
		return nil
	}
	c.form = nil
	c.state = StateLoaded
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.notifier.Clear()
	c.publish(websocket.EventEntryAdded, map[string]string{"patientId": id, "entryId": created.Common().ID})
	c.fetch(context.WithoutCancel(ctx), id, gen)
	return nil
}

// closeForm is the form's cancel callback.
func (c *Controller) closeForm() {
	c.mu.Lock()
	if c.form == nil {
		c.mu.Unlock()
		return
	}
	c.form = nil
	if c.state == StateAddingEntry {
		c.state = StateLoaded
	}
	c.mu.Unlock()

	c.notifier.Clear()
	c.publish(websocket.EventFormClosed, nil)
}

// Unmount stops the notice timer and invalidates any fetch in flight. The
// controller cannot be mounted again.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.form = nil
	c.mu.Unlock()

	c.notifier.Close()
}

// PatientID returns the mounted patient id.
func (c *Controller) PatientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patientID
}

// Snapshot is a consistent read of the page for rendering.
type Snapshot struct {
	State     State
	PatientID string
	Patient   *patient.Patient
	Entries   []entrydetail.View
	Form      *entryform.View
	Notice    *notification.Notice
}

func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	snap := Snapshot{State: c.state, PatientID: c.patientID, Patient: c.patient}
	form := c.form
	c.mu.Unlock()

	if snap.Patient != nil {
		views, err := entrydetail.BuildAll(snap.Patient.Entries, c.dir)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Entries = views
	}
	if form != nil {
		v := form.View()
		snap.Form = &v
	}
	if n, ok := c.notifier.Current(); ok {
		snap.Notice = &n
	}
	return snap, nil
}

func (c *Controller) noticeChanged(n *notification.Notice) {
	if n == nil {
		c.publish(websocket.EventNotificationHidden, nil)
		return
	}
	c.publish(websocket.EventNotificationShown, n)
}

func (c *Controller) publish(eventType string, data any) {
	if err := c.pub.Publish(context.Background(), websocket.NewEvent(eventType, c.topic, data)); err != nil {
		c.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish page event")
	}
}
