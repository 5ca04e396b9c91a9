package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/transport"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

type Handler struct {
	chatSvc     *service.ChatService
	memberSvc   *service.MemberService
	messageSvc  *service.MessageService
	reactionSvc *service.ReactionService
	readSvc     *service.ReadService
	pinSvc      *service.PinService
}

func NewHandler(s *service.Set) *Handler {
	return &Handler{
		chatSvc:     s.Chats,
		memberSvc:   s.Members,
		messageSvc:  s.Messages,
		reactionSvc: s.Reactions,
		readSvc:     s.Reads,
		pinSvc:      s.Pins,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrNotMember):
		return http.StatusForbidden, "not_member"
	case errors.Is(err, domain.ErrChannelWriteDenied):
		return http.StatusForbidden, "channel_write_denied"
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, "insufficient_role"
	case errors.Is(err, domain.ErrNotAuthor):
		return http.StatusForbidden, "not_author"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvariantViolation):
		return http.StatusConflict, "invariant_violation"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	}
	return http.StatusInternalServerError, "internal"
}

// writeErr: ожидаемые доменные ошибки уходят клиенту как есть,
// неожиданные логируются и скрываются.
func writeErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("handler."+op, "err", err)
		writeJSON(w, status, chatapi.ErrorResponse{Error: "internal error", Code: code})
		return
	}
	writeJSON(w, status, chatapi.ErrorResponse{Error: err.Error(), Code: code})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrInvalidInput)
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func pathUserID(r *http.Request) (domain.UserID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
	}
	return domain.UserID(id), nil
}

func caller(r *http.Request) *domain.Caller {
	return identity.CallerFrom(r.Context())
}

// ---- chats ----

// GET /chats?limit=&cursor=
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeErr(w, r, "ListChats", err)
		return
	}
	items, next, err := h.chatSvc.List(r.Context(), caller(r), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeErr(w, r, "ListChats", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.ChatsResponse{Items: transport.ChatSummaries(items), NextCursor: next})
}

// POST /chats
func (h *Handler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	var req chatapi.CreateGroupChatRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "CreateGroupChat", err)
		return
	}
	v, err := h.chatSvc.CreateGroup(r.Context(), caller(r), service.CreateGroupInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		IsChannel: req.IsChannel,
		IsPrivate: req.IsPrivate,
		MemberIDs: transport.DomainUserIDs(req.MemberIDs),
	})
	if err != nil {
		writeErr(w, r, "CreateGroupChat", err)
		return
	}
	writeJSON(w, http.StatusCreated, transport.ChatView(v))
}

// POST /chats/private
func (h *Handler) CreatePrivateChat(w http.ResponseWriter, r *http.Request) {
	var req chatapi.CreatePrivateChatRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "CreatePrivateChat", err)
		return
	}
	v, err := h.chatSvc.CreatePrivate(r.Context(), caller(r), domain.UserID(req.PeerID))
	if err != nil {
		writeErr(w, r, "CreatePrivateChat", err)
		return
	}
	writeJSON(w, http.StatusOK, transport.ChatView(v))
}

// GET /chats/{id}
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	v, err := h.chatSvc.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, "GetChat", err)
		return
	}
	writeJSON(w, http.StatusOK, transport.ChatView(v))
}

// DELETE /chats/{id}
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, "DeleteChat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /chats/{id}/join
func (h *Handler) JoinChat(w http.ResponseWriter, r *http.Request) {
	v, err := h.chatSvc.Join(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, "JoinChat", err)
		return
	}
	writeJSON(w, http.StatusOK, transport.ChatView(v))
}

// POST /chats/{id}/leave
func (h *Handler) LeaveChat(w http.ResponseWriter, r *http.Request) {
	if err := h.memberSvc.Leave(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, "LeaveChat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- members ----

// GET /chats/{id}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := h.memberSvc.List(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, "ListMembers", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.MembersResponse{Items: transport.Members(ms)})
}

// POST /chats/{id}/members
func (h *Handler) AddMembers(w http.ResponseWriter, r *http.Request) {
	var req chatapi.AddMembersRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "AddMembers", err)
		return
	}
	added, err := h.memberSvc.Add(r.Context(), caller(r), chi.URLParam(r, "id"), transport.DomainUserIDs(req.UserIDs))
	if err != nil {
		writeErr(w, r, "AddMembers", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.AddMembersResponse{Added: transport.UserIDs(added)})
}

// DELETE /chats/{id}/members/{userID}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeErr(w, r, "RemoveMember", err)
		return
	}
	if err := h.memberSvc.Remove(r.Context(), caller(r), chi.URLParam(r, "id"), uid); err != nil {
		writeErr(w, r, "RemoveMember", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /chats/{id}/members/{userID}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	uid, err := pathUserID(r)
	if err != nil {
		writeErr(w, r, "ChangeRole", err)
		return
	}
	var req chatapi.ChangeRoleRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "ChangeRole", err)
		return
	}
	if err := h.memberSvc.ChangeRole(r.Context(), caller(r), chi.URLParam(r, "id"), uid, domain.Role(req.Role)); err != nil {
		writeErr(w, r, "ChangeRole", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- messages ----

// GET /chats/{id}/messages?page=&page_size=
func (h *Handler) FetchMessages(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeErr(w, r, "FetchMessages", err)
		return
	}
	size, err := queryInt(r, "page_size")
	if err != nil {
		writeErr(w, r, "FetchMessages", err)
		return
	}
	items, err := h.messageSvc.Fetch(r.Context(), caller(r), chi.URLParam(r, "id"), page, size)
	if err != nil {
		writeErr(w, r, "FetchMessages", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.MessagesResponse{Items: transport.Messages(items)})
}

// POST /chats/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatapi.SendMessageRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "SendMessage", err)
		return
	}
	v, err := h.messageSvc.Send(r.Context(), caller(r), service.SendInput{
		ChatID:      chi.URLParam(r, "id"),
		Content:     req.Content,
		Attachments: req.Attachments,
		ReplyToID:   req.ReplyToID,
		StickerURL:  req.StickerURL,
		ClientTag:   req.ClientTag,
	})
	if err != nil {
		writeErr(w, r, "SendMessage", err)
		return
	}
	writeJSON(w, http.StatusCreated, transport.Message(v))
}

// PATCH /messages/{id}
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req chatapi.EditMessageRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "EditMessage", err)
		return
	}
	v, err := h.messageSvc.Edit(r.Context(), caller(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeErr(w, r, "EditMessage", err)
		return
	}
	writeJSON(w, http.StatusOK, transport.Message(v))
}

// DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.messageSvc.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, "DeleteMessage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /messages/{id}/forward
func (h *Handler) ForwardMessage(w http.ResponseWriter, r *http.Request) {
	var req chatapi.ForwardMessageRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "ForwardMessage", err)
		return
	}
	v, err := h.messageSvc.Forward(r.Context(), caller(r), chi.URLParam(r, "id"), req.TargetChatID)
	if err != nil {
		writeErr(w, r, "ForwardMessage", err)
		return
	}
	writeJSON(w, http.StatusCreated, transport.Message(v))
}

// ---- reactions / reads / pins ----

// PUT /messages/{id}/reaction
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	var req chatapi.ReactRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "React", err)
		return
	}
	id := chi.URLParam(r, "id")
	groups, err := h.reactionSvc.React(r.Context(), caller(r), id, req.Emoji)
	if err != nil {
		writeErr(w, r, "React", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.ReactionsResponse{MessageID: id, Reactions: transport.Reactions(groups)})
}

// DELETE /messages/{id}/reaction
func (h *Handler) Unreact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	groups, err := h.reactionSvc.Unreact(r.Context(), caller(r), id)
	if err != nil {
		writeErr(w, r, "Unreact", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.ReactionsResponse{MessageID: id, Reactions: transport.Reactions(groups)})
}

// POST /messages/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.readSvc.MarkRead(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, "MarkRead", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /chats/{id}/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.readSvc.MarkAllRead(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, "MarkAllRead", err)
		return
	}
	writeJSON(w, http.StatusOK, chatapi.MarkAllReadResponse{Marked: n})
}

// PUT /chats/{id}/pin
func (h *Handler) PinMessage(w http.ResponseWriter, r *http.Request) {
	var req chatapi.PinRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, r, "PinMessage", err)
		return
	}
	v, err := h.pinSvc.Pin(r.Context(), caller(r), chi.URLParam(r, "id"), req.MessageID)
	if err != nil {
		writeErr(w, r, "PinMessage", err)
		return
	}
	writeJSON(w, http.StatusOK, transport.Message(v))
}

// DELETE /chats/{id}/pin
func (h *Handler) UnpinMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.pinSvc.Unpin(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, "UnpinMessage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
