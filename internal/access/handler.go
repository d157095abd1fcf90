package access

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// Handler exposes the access administration API: level CRUD and
// per-capability toggles, cascade control, apply-to-role, and role
// management. Every route is gated to the admin component capability.
type Handler struct {
	logger    *slog.Logger
	levels    *LevelService
	roles     *RoleService
	guard     Guard
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, levels *LevelService, roles *RoleService, guard Guard, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		levels:    levels,
		roles:     roles,
		guard:     guard,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountRoutes registers the admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireComponent(CompAdmin))

		r.Get("/levels", h.listLevels)
		r.Post("/levels", h.createLevel)
		r.Get("/levels/{level}", h.getLevel)
		r.Put("/levels/{level}", h.updateLevel)
		r.Delete("/levels/{level}", h.deleteLevel)
		r.Put("/levels/{level}/components/{capabilityID}", h.setComponentAccess)
		r.Put("/levels/{level}/features/{capabilityID}", h.setFeatureAccess)
		r.Post("/levels/{level}/toggle-cascade", h.toggleCascade)
		r.Post("/levels/{level}/apply-to-role/{roleID}", h.applyToRole)
		r.Get("/levels/{level}/roles", h.rolesAtLevel)
		r.Get("/levels/{level}/affected-roles", h.affectedRoles)

		r.Get("/roles", h.listRoles)
		r.Post("/roles", h.createRole)
		r.Get("/roles/{roleID}", h.getRole)
		r.Put("/roles/{roleID}", h.updateRole)
		r.Delete("/roles/{roleID}", h.deleteRole)
		r.Put("/roles/{roleID}/override", h.overridePermission)
		r.Get("/roles/{roleID}/effective", h.effectivePermissions)

		r.Get("/catalog", h.catalog)
	})
}

func (h *Handler) listLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.levels.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"levels": levels})
}

type createLevelRequest struct {
	Level                int           `json:"level" validate:"min=0,max=10"`
	Name                 string        `json:"name" validate:"required"`
	Description          string        `json:"description"`
	ComponentPermissions PermissionSet `json:"componentPermissions"`
	FeaturePermissions   PermissionSet `json:"featurePermissions"`
	CascadeEnabled       *bool         `json:"cascadeEnabled"`
	IsSystemLevel        bool          `json:"isSystemLevel"`
}

func (h *Handler) createLevel(w http.ResponseWriter, r *http.Request) {
	var req createLevelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cascade := true
	if req.CascadeEnabled != nil {
		cascade = *req.CascadeEnabled
	}
	level, err := h.levels.Create(r.Context(), Level{
		Level:                req.Level,
		Name:                 req.Name,
		Description:          req.Description,
		ComponentPermissions: req.ComponentPermissions,
		FeaturePermissions:   req.FeaturePermissions,
		CascadeEnabled:       cascade,
		IsSystemLevel:        req.IsSystemLevel,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "level.create", strconv.Itoa(level.Level), nil)
	httpx.JSON(w, http.StatusCreated, map[string]any{"level": level})
}

func (h *Handler) getLevel(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	level, err := h.levels.Get(r.Context(), num)
	if err != nil {
		h.respondError(w, err)
		return
	}
	roles, err := h.levels.AffectedRoles(r.Context(), num)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"level": level, "roles": roles})
}

type updateLevelRequest struct {
	Name                 *string        `json:"name"`
	Description          *string        `json:"description"`
	ComponentPermissions *PermissionSet `json:"componentPermissions"`
	FeaturePermissions   *PermissionSet `json:"featurePermissions"`
	CascadeEnabled       *bool          `json:"cascadeEnabled"`
	Level                *int           `json:"level"`
}

func (h *Handler) updateLevel(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	var req updateLevelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	level, result, err := h.levels.Update(r.Context(), num, LevelUpdate{
		Name:                 req.Name,
		Description:          req.Description,
		ComponentPermissions: req.ComponentPermissions,
		FeaturePermissions:   req.FeaturePermissions,
		CascadeEnabled:       req.CascadeEnabled,
		NewLevel:             req.Level,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "level.update", strconv.Itoa(num), map[string]any{"cascaded": result.Updated})
	httpx.JSON(w, http.StatusOK, map[string]any{
		"level":    level,
		"cascaded": level.CascadeEnabled,
		"updated":  result.Updated,
		"failed":   result.Failed,
	})
}

func (h *Handler) deleteLevel(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	if err := h.levels.Delete(r.Context(), num); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "level.delete", strconv.Itoa(num), nil)
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type setAccessRequest struct {
	HasAccess bool `json:"hasAccess"`
}

func (h *Handler) setComponentAccess(w http.ResponseWriter, r *http.Request) {
	h.setAccess(w, r, KindComponent)
}

func (h *Handler) setFeatureAccess(w http.ResponseWriter, r *http.Request) {
	h.setAccess(w, r, KindFeature)
}

func (h *Handler) setAccess(w http.ResponseWriter, r *http.Request, kind PermissionKind) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	capabilityID := chi.URLParam(r, "capabilityID")
	var req setAccessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	var (
		level  Level
		result CascadeResult
		err    error
	)
	if kind == KindComponent {
		level, result, err = h.levels.SetComponentAccess(r.Context(), num, capabilityID, req.HasAccess)
	} else {
		level, result, err = h.levels.SetFeatureAccess(r.Context(), num, capabilityID, req.HasAccess)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "level."+string(kind)+".toggle", strconv.Itoa(num), map[string]any{
		"capability": capabilityID,
		"hasAccess":  req.HasAccess,
	})
	httpx.JSON(w, http.StatusOK, map[string]any{
		"level":    level,
		"cascaded": level.CascadeEnabled,
		"updated":  result.Updated,
	})
}

func (h *Handler) toggleCascade(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	enabled, err := h.levels.ToggleCascade(r.Context(), num)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "level.toggle-cascade", strconv.Itoa(num), map[string]any{"enabled": enabled})
	httpx.JSON(w, http.StatusOK, map[string]any{"cascadeEnabled": enabled})
}

func (h *Handler) applyToRole(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	roleID := chi.URLParam(r, "roleID")
	role, err := h.levels.ApplyToRole(r.Context(), num, roleID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "level.apply-to-role", strconv.Itoa(num), map[string]any{"role": role.RoleID})
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role})
}

func (h *Handler) rolesAtLevel(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	roles, err := h.roles.ListByLevel(r.Context(), num)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"level": num, "roles": roles})
}

func (h *Handler) affectedRoles(w http.ResponseWriter, r *http.Request) {
	num, ok := h.levelParam(w, r)
	if !ok {
		return
	}
	refs, err := h.levels.AffectedRoles(r.Context(), num)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"level": num, "affectedRoles": refs, "count": len(refs)})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

type createRoleRequest struct {
	RoleID               string        `json:"roleId" validate:"required"`
	DisplayName          string        `json:"displayName" validate:"required"`
	Description          string        `json:"description"`
	HierarchyLevel       int           `json:"hierarchyLevel" validate:"min=0,max=10"`
	ComponentPermissions PermissionSet `json:"componentPermissions"`
	FeaturePermissions   PermissionSet `json:"featurePermissions"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.roles.Create(r.Context(), Role{
		RoleID:               req.RoleID,
		DisplayName:          req.DisplayName,
		Description:          req.Description,
		HierarchyLevel:       req.HierarchyLevel,
		ComponentPermissions: req.ComponentPermissions,
		FeaturePermissions:   req.FeaturePermissions,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "role.create", role.RoleID, nil)
	httpx.JSON(w, http.StatusCreated, map[string]any{"role": role})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.Get(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role})
}

type updateRoleRequest struct {
	DisplayName    *string `json:"displayName"`
	Description    *string `json:"description"`
	HierarchyLevel *int    `json:"hierarchyLevel"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	role, err := h.roles.Update(r.Context(), chi.URLParam(r, "roleID"), RoleUpdate{
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		HierarchyLevel: req.HierarchyLevel,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "role.update", role.RoleID, nil)
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	if err := h.roles.Delete(r.Context(), roleID); err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "role.delete", roleID, nil)
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type overrideRequest struct {
	Type         string `json:"type" validate:"required,oneof=component feature"`
	CapabilityID string `json:"capabilityId" validate:"required"`
	HasAccess    bool   `json:"hasAccess"`
}

func (h *Handler) overridePermission(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.roles.OverridePermission(r.Context(), chi.URLParam(r, "roleID"), PermissionKind(req.Type), req.CapabilityID, req.HasAccess)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.recordAudit(r, "role.override", role.RoleID, map[string]any{
		"type":       req.Type,
		"capability": req.CapabilityID,
		"hasAccess":  req.HasAccess,
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"role": role})
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	effective, err := h.roles.EffectivePermissions(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"effective": effective})
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"components": Components(),
		"features":   Features(),
	})
}

func (h *Handler) levelParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	num, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Level", "level must be an integer")
		return 0, false
	}
	return num, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var (
		dupLevel   *DuplicateLevelError
		dupRole    *DuplicateRoleError
		sysLevel   *SystemLevelError
		sysRole    *SystemRoleError
		inUse      *LevelInUseError
		validation *ValidationError
	)
	switch {
	case errors.As(err, &dupLevel), errors.As(err, &dupRole):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.As(err, &sysLevel), errors.As(err, &sysRole):
		httpx.Problem(w, http.StatusForbidden, "Protected", err.Error())
	case errors.As(err, &inUse):
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"title":  "Level In Use",
			"status": http.StatusConflict,
			"detail": err.Error(),
			"roles":  inUse.Roles,
		})
	case errors.Is(err, ErrLevelNotFound), errors.Is(err, ErrRoleNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &validation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("access handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	var actorID int64
	if sess != nil {
		if id, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
			actorID = id
		}
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "access",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
