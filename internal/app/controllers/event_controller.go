package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
)

// EventController serves events and attendance.
type EventController struct {
	events services.EventService
	now    func() time.Time
}

// NewEventController creates a new EventController
func NewEventController(events services.EventService) *EventController {
	return &EventController{events: events, now: time.Now}
}

// ListEvents splits the events matching ?q= into upcoming and past.
func (c *EventController) ListEvents(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	actor := sess.Actor()
	found := views.SearchEvents(sess.Store.Snapshot().Events, ctx.Query("q"))
	upcoming, past := views.PartitionEvents(found, c.now())

	item := func(e models.Event) dto.EventItem {
		return dto.EventItem{
			Event:    e,
			Attended: sess.Store.Attended(e.ID, actor.ID),
			Controls: views.Controls(&actor, e.CreatedBy, models.CapCreateEvent, models.CapDeleteAnyContent),
		}
	}
	resp := dto.EventsResponse{
		Upcoming: make([]dto.EventItem, 0, len(upcoming)),
		Past:     make([]dto.EventItem, 0, len(past)),
	}
	for _, e := range upcoming {
		resp.Upcoming = append(resp.Upcoming, item(e))
	}
	for _, e := range past {
		resp.Past = append(resp.Past, item(e))
	}
	respond(ctx, http.StatusOK, resp, "")
}

func (c *EventController) CreateEvent(ctx *gin.Context) {
	var req dto.EventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	event, err := c.events.CreateEvent(ctx.Request.Context(), middleware.SessionFrom(ctx), services.EventInput{
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date,
		Time:             req.Time,
		Location:         req.Location,
		RegistrationLink: req.RegistrationLink,
		Image:            req.Image,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, event, "")
}

func (c *EventController) DeleteEvent(ctx *gin.Context) {
	if err := c.events.DeleteEvent(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Event deleted")
}

func (c *EventController) MarkAttendance(ctx *gin.Context) {
	attendee, err := c.events.MarkAttendance(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, attendee, "Attendance marked")
}
