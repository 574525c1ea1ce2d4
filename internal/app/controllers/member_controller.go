package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
)

// MemberController serves the member directory.
type MemberController struct {
	members services.MemberService
}

// NewMemberController creates a new MemberController
func NewMemberController(members services.MemberService) *MemberController {
	return &MemberController{members: members}
}

// ListMembers returns the members matching ?q= with the actor's controls.
func (c *MemberController) ListMembers(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	actor := sess.Actor()
	found := views.SearchUsers(sess.Store.Snapshot().Users, ctx.Query("q"))
	items := make([]dto.MemberResponse, 0, len(found))
	for i := range found {
		u := found[i]
		u.Email = ""
		if views.Can(&actor, models.CapManageMembers) {
			u.Email = found[i].Email
		}
		items = append(items, dto.MemberResponse{
			User:          u,
			CanChangeRole: models.CanChangeRole(&actor, &found[i], models.RoleMember),
			CanRemove:     canRemove(&actor, &found[i]),
		})
	}
	respond(ctx, http.StatusOK, items, "")
}

func canRemove(actor, target *models.User) bool {
	if actor.ID == target.ID || !views.Can(actor, models.CapManageMembers) {
		return false
	}
	return target.Role != models.RoleSuperAdmin || actor.Role == models.RoleSuperAdmin
}

// Badges lists the badges a member has earned.
func (c *MemberController) Badges(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	id := ctx.Param("id")
	if _, ok := sess.Store.User(id); !ok {
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "member not found")))
		return
	}
	respond(ctx, http.StatusOK, views.BadgesFor(id, sess.Store.Snapshot().Badges, models.BadgeCatalog), "")
}

func (c *MemberController) AddMember(ctx *gin.Context) {
	var req dto.AddMemberRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	user, err := c.members.AddMember(ctx.Request.Context(), middleware.SessionFrom(ctx), services.MemberInput{
		Name:     req.Name,
		Handle:   req.Handle,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, user, "")
}

func (c *MemberController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	avatar := ""
	if req.Avatar != nil {
		avatar = *req.Avatar
	}
	user, err := c.members.UpdateProfile(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), req.Patch(), avatar)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user, "Profile updated")
}

func (c *MemberController) ChangeRole(ctx *gin.Context) {
	var req dto.ChangeRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	user, err := c.members.ChangeRole(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user, "Role updated")
}

// RemoveMember deletes a member and everything they authored.
func (c *MemberController) RemoveMember(ctx *gin.Context) {
	if err := c.members.RemoveMember(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Member removed")
}
