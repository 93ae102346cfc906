package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/josephinoo/agent-bg/internal/common/logger"
	"github.com/josephinoo/agent-bg/internal/conversation/orchestrator"
	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	maxBodyBytes     = 64 << 10
	greetingSendWait = 15 * time.Second
)

type conversationService interface {
	HandleInbound(ctx context.Context, address, text string) orchestrator.InboundResponse
	StartChat(ctx context.Context, address, campaignID string, profile orchestrator.ChatProfile) orchestrator.InboundResponse
	SessionMetrics(ctx context.Context, address string) (*orchestrator.Snapshot, error)
}

type messageSender interface {
	Send(ctx context.Context, address, text string) bool
}

type inboundRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type startChatRequest struct {
	Phone      string                   `json:"phone"`
	CampaignID string                   `json:"campaign_id"`
	UserData   orchestrator.ChatProfile `json:"user_data"`
}

// webhookAPI is the HTTP surface used by the chat gateway.
type webhookAPI struct {
	service conversationService
	gateway messageSender
	logger  logger.Logger
	pending sync.WaitGroup
}

// inbound answers with the reply; the gateway delivers it to the contact.
func (a *webhookAPI) inbound(w http.ResponseWriter, r *http.Request) {
	var req inboundRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("phone and message are required"))
		return
	}

	resp := a.service.HandleInbound(r.Context(), req.Phone, req.Message)
	writeJSON(w, statusFor(resp), resp)
}

// startChat opens a proactive session and pushes the greeting through the gateway.
func (a *webhookAPI) startChat(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.CampaignID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("phone and campaign_id are required"))
		return
	}

	resp := a.service.StartChat(r.Context(), req.Phone, req.CampaignID, req.UserData)
	if resp.Status == orchestrator.StatusChatStarted && a.gateway != nil {
		phone := models.NormalizePhone(req.Phone)
		a.pending.Add(1)
		go func() {
			defer a.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), greetingSendWait)
			defer cancel()
			if !a.gateway.Send(ctx, phone, resp.ResponseText) {
				a.logger.Warn("Greeting not delivered", map[string]interface{}{
					"sessionId": resp.SessionID,
					"phone":     models.MaskPhone(phone),
				})
			}
		}()
	}
	writeJSON(w, statusFor(resp), resp)
}

func (a *webhookAPI) sessionMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.SessionMetrics(r.Context(), r.PathValue("phone"))
	if err != nil {
		a.logger.Error("Session metrics failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorBody("session metrics unavailable"))
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no conversation for this phone"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// wait blocks until pending greeting deliveries have finished.
func (a *webhookAPI) wait() {
	a.pending.Wait()
}

func (a *webhookAPI) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.logger.Warn("Rejected webhook payload", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func statusFor(resp orchestrator.InboundResponse) int {
	if resp.Status == orchestrator.StatusInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func errorBody(msg string) map[string]string {
	return map[string]string{"status": "error", "error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
