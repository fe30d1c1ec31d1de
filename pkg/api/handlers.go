package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/common/models"
	"github.com/thealphakenya/Alphaai/pkg/media"
	"github.com/thealphakenya/Alphaai/pkg/workspace"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.Chat.Handle(r.Context(), req)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", req.ConversationID).Error("Chat failed")
		writeJSON(w, http.StatusInternalServerError, models.Failure("Failed to generate a response"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type workspaceRequest struct {
	WorkspaceID string                 `json:"workspace_id"`
	TemplateID  string                 `json:"template_id"`
	Updates     map[string]interface{} `json:"updates"`
	Task        string                 `json:"task"`
}

type workspaceResponse struct {
	models.StatusResponse
	Workspace workspace.Workspace `json:"workspace,omitempty"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WorkspaceID == "" {
		req.WorkspaceID = fmt.Sprintf("workspace_%d", s.now().Unix())
	}
	if req.TemplateID == "" {
		req.TemplateID = workspace.DefaultTemplate
	}

	ws, err := s.Workspaces.Create(req.WorkspaceID, req.TemplateID)
	writeWorkspace(w, req, ws, err, "Workspace created")
}

func (s *Server) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WorkspaceID == "" {
		writeStatus(w, models.Failure("Workspace ID is required"))
		return
	}

	ws, err := s.Workspaces.Update(req.WorkspaceID, req.Updates)
	writeWorkspace(w, req, ws, err, "Workspace updated")
}

func (s *Server) handleSwitchTemplate(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WorkspaceID == "" || req.TemplateID == "" {
		writeStatus(w, models.Failure("Workspace ID and template ID are required"))
		return
	}

	ws, err := s.Workspaces.SwitchTemplate(req.WorkspaceID, req.TemplateID)
	writeWorkspace(w, req, ws, err, "Workspace template switched")
}

func writeWorkspace(w http.ResponseWriter, req workspaceRequest, ws workspace.Workspace, err error, message string) {
	if err != nil {
		writeStatus(w, workspaceFailure(err, req.WorkspaceID, req.TemplateID))
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{StatusResponse: models.Success(message), Workspace: ws})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ws, err := s.Workspaces.Get(id)
	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, workspace.ErrWorkspaceNotFound) && !errors.Is(err, workspace.ErrInvalidID) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, workspaceFailure(err, id, ""))
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleDetectTemplate(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Task == "" {
		writeStatus(w, models.Failure("Task description is required"))
		return
	}

	templateID := workspace.DetectTemplate(req.Task)
	tmpl, _ := s.Workspaces.Template(templateID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      models.StatusSuccess,
		"template_id": templateID,
		"template":    tmpl,
	})
}

func workspaceFailure(err error, workspaceID, templateID string) models.StatusResponse {
	switch {
	case errors.Is(err, workspace.ErrTemplateNotFound):
		return models.Failure("Template not found: " + templateID)
	case errors.Is(err, workspace.ErrWorkspaceNotFound):
		return models.Failure("Workspace not found: " + workspaceID)
	case errors.Is(err, workspace.ErrInvalidID):
		return models.Failure("Invalid workspace ID")
	default:
		logger.Log.WithError(err).Error("Workspace request failed")
		return models.Failure("Workspace request failed")
	}
}

type registerMediaRequest struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	Metadata media.Metadata `json:"metadata"`
}

func (s *Server) handleRegisterMedia(w http.ResponseWriter, r *http.Request) {
	var req registerMediaRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type == "" {
		writeStatus(w, models.Failure("Media type is required"))
		return
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("media_%d", s.now().Unix())
	}

	if err := s.Media.Register(req.Type, req.ID, req.Metadata); err != nil {
		if errors.Is(err, media.ErrInvalidMediaType) {
			writeStatus(w, models.Failure("Invalid media type: "+req.Type))
			return
		}
		logger.Log.WithError(err).Error("Media registration failed")
		writeStatus(w, models.Failure("Media registration failed"))
		return
	}
	writeStatus(w, models.Success(strings.ToUpper(req.Type[:1])+req.Type[1:]+" registered successfully"))
}

func (s *Server) handleSearchMedia(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	results := s.Media.Search(query.Get("query"), query.Get("type"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  models.StatusSuccess,
		"results": results,
	})
}

func (s *Server) handlePlayerConfig(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cfg, err := s.Media.PlayerConfig(vars["type"], vars["id"])
	switch {
	case errors.Is(err, media.ErrInvalidMediaType):
		writeJSON(w, http.StatusBadRequest, models.Failure("Invalid media type: "+vars["type"]))
		return
	case errors.Is(err, media.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.Failure("Media not found"))
		return
	case err != nil:
		logger.Log.WithError(err).Error("Failed to build player config")
		writeJSON(w, http.StatusInternalServerError, models.Failure("Failed to build player config"))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSearchMemory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 10
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.Failure("Invalid limit"))
			return
		}
		limit = parsed
	}

	results, err := s.Memory.SearchConversations(r.Context(), query.Get("query"), limit)
	if err != nil {
		logger.Log.WithError(err).Error("Memory search failed")
		writeJSON(w, http.StatusInternalServerError, models.Failure("Memory search failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  models.StatusSuccess,
		"results": results,
	})
}
