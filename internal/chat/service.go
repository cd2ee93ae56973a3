package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
	"campus-chat/internal/repositories"
)

// Real-time event names pushed to rooms.
const (
	EventLoungeMessage  = "receiveLoungeMessage"
	EventPrivateMessage = "receivePrivateMessage"
)

// Codec seals message text at rest.
type Codec interface {
	Encrypt(plainText string) (cipherText string, iv string, err error)
	Decrypt(cipherText, iv string) (string, error)
}

// Publisher pushes events to the connections joined to a room.
type Publisher interface {
	Publish(room, event string, payload any)
	CloseRoom(room string)
	// LeaveUser unsubscribes every connection of userID from room.
	LeaveUser(room, userID string)
}

// PrivateMessageStore is the private match message store with read receipts.
type PrivateMessageStore interface {
	repositories.MessageRepository
	repositories.SeenTracker
}

// surface is the variant specific part of the shared send/read pipeline.
type surface struct {
	kind     models.SurfaceKind
	event    string
	messages repositories.MessageRepository
	seen     repositories.SeenTracker
}

// SendRequest is a message submitted by a surface member.
type SendRequest struct {
	SurfaceID   uuid.UUID
	SenderID    string
	Text        string
	ImageURL    string
	RecipientID string
}

// Service composes the gate, codec, message stores and fan-out for lounges and matches.
type Service struct {
	gate     *Gate
	lounges  repositories.LoungeRepository
	matches  repositories.MatchRepository
	codec    Codec
	hub      Publisher
	log      *zap.Logger
	tracer   trace.Tracer
	surfaces map[models.SurfaceKind]surface
}

// NewService wires the chat core.
func NewService(
	gate *Gate,
	lounges repositories.LoungeRepository,
	matches repositories.MatchRepository,
	loungeMessages repositories.MessageRepository,
	privateMessages PrivateMessageStore,
	codec Codec,
	hub Publisher,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		gate:    gate,
		lounges: lounges,
		matches: matches,
		codec:   codec,
		hub:     hub,
		log:     log.Named("chat"),
		tracer:  otel.Tracer("campus-chat/chat"),
		surfaces: map[models.SurfaceKind]surface{
			models.SurfaceLounge: {
				kind:     models.SurfaceLounge,
				event:    EventLoungeMessage,
				messages: loungeMessages,
			},
			models.SurfacePrivate: {
				kind:     models.SurfacePrivate,
				event:    EventPrivateMessage,
				messages: privateMessages,
				seen:     privateMessages,
			},
		},
	}
}

// Gate exposes the membership gate for the real-time layer.
func (s *Service) Gate() *Gate {
	return s.gate
}

// Send authorizes, encrypts, persists and then publishes a message. Nothing is
// published unless the message was stored.
func (s *Service) Send(ctx context.Context, kind models.SurfaceKind, req SendRequest) (view models.MessageView, err error) {
	sf, ok := s.surfaces[kind]
	if !ok {
		return models.MessageView{}, ErrUnknownSurface
	}

	ctx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("chat.kind", string(kind)),
		attribute.String("chat.surface_id", req.SurfaceID.String()),
	))
	defer func() { endSpan(span, err) }()

	draft := models.Message{SurfaceID: req.SurfaceID, SenderID: req.SenderID}
	switch kind {
	case models.SurfaceLounge:
		if err := s.gate.authorizeLounge(ctx, req.SurfaceID, req.SenderID); err != nil {
			return models.MessageView{}, err
		}
	case models.SurfacePrivate:
		match, err := s.gate.authorizeMatch(ctx, req.SurfaceID, req.SenderID)
		if err != nil {
			return models.MessageView{}, err
		}
		other := match.Other(req.SenderID)
		if req.RecipientID != "" && req.RecipientID != other {
			return models.MessageView{}, ErrInvalidRecipient
		}
		draft.RecipientID = &other
		draft.Delivered = true
	}

	hasText := strings.TrimSpace(req.Text) != ""
	imageURL := strings.TrimSpace(req.ImageURL)
	if !hasText && imageURL == "" {
		return models.MessageView{}, ErrEmptyMessage
	}
	if hasText {
		ct, iv, err := s.codec.Encrypt(req.Text)
		if err != nil {
			return models.MessageView{}, fmt.Errorf("encrypt message: %w", err)
		}
		draft.CipherText, draft.IV = &ct, &iv
	}
	if imageURL != "" {
		draft.ImageURL = &imageURL
	}

	stored, err := sf.messages.Append(ctx, draft)
	if err != nil {
		return models.MessageView{}, fmt.Errorf("store message: %w", err)
	}

	view = toView(kind, stored)
	if hasText {
		text := req.Text
		view.Text = &text
	}

	s.hub.Publish(stored.SurfaceID.String(), sf.event, view)
	observability.IncMessageSent(string(kind))
	s.publishSent(ctx, kind, stored)
	s.log.Debug("message sent",
		zap.String("kind", string(kind)),
		zap.Stringer("surface_id", stored.SurfaceID),
		zap.Int64("message_id", stored.ID),
		zap.String("sender_id", stored.SenderID),
	)
	return view, nil
}

// History returns the decrypted history of a surface, oldest first. For matches the
// messages addressed to the viewer are marked seen before they are returned.
func (s *Service) History(ctx context.Context, kind models.SurfaceKind, surfaceID uuid.UUID, viewerID string) (views []models.MessageView, err error) {
	sf, ok := s.surfaces[kind]
	if !ok {
		return nil, ErrUnknownSurface
	}

	ctx, span := s.tracer.Start(ctx, "chat.history", trace.WithAttributes(
		attribute.String("chat.kind", string(kind)),
		attribute.String("chat.surface_id", surfaceID.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := s.gate.Authorize(ctx, kind, surfaceID, viewerID); err != nil {
		return nil, err
	}

	if sf.seen != nil {
		if _, err := sf.seen.MarkSeen(ctx, surfaceID, viewerID); err != nil {
			return nil, fmt.Errorf("mark seen: %w", err)
		}
	}

	msgs, err := sf.messages.ListOrdered(ctx, surfaceID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	views = make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, s.decryptView(kind, m))
	}
	span.SetAttributes(attribute.Int("chat.message_count", len(views)))
	return views, nil
}

// decryptView isolates decrypt failures to the single message.
func (s *Service) decryptView(kind models.SurfaceKind, m models.Message) models.MessageView {
	view := toView(kind, m)
	if !m.HasText() {
		return view
	}
	text, err := s.codec.Decrypt(*m.CipherText, *m.IV)
	if err != nil {
		observability.IncDecryptFailure(string(kind))
		s.log.Warn("decrypt message failed",
			zap.String("kind", string(kind)),
			zap.Stringer("surface_id", m.SurfaceID),
			zap.Int64("message_id", m.ID),
			zap.Error(err),
		)
		view.DecryptError = "message could not be decrypted"
		return view
	}
	view.Text = &text
	return view
}

// publishSent ships message metadata to the event bus. Content is never included.
func (s *Service) publishSent(ctx context.Context, kind models.SurfaceKind, m models.Message) {
	traceID := trace.SpanContextFromContext(ctx).TraceID().String()
	_ = observability.PublishEvent(ctx, observability.RoutingChatEvents, observability.EventEnvelope{
		EventType: "chat_events",
		EventName: "message_sent",
		Payload: map[string]interface{}{
			"kind":       kind,
			"surface_id": m.SurfaceID,
			"message_id": m.ID,
			"sender_id":  m.SenderID,
			"has_text":   m.HasText(),
			"has_image":  m.ImageURL != nil,
		},
	}, observability.BuildHeaders("", traceID))
}

func toView(kind models.SurfaceKind, m models.Message) models.MessageView {
	view := models.MessageView{
		ID:          m.ID,
		Kind:        kind,
		SurfaceID:   m.SurfaceID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		ImageURL:    m.ImageURL,
		SeenAt:      m.SeenAt,
		CreatedAt:   m.CreatedAt,
	}
	if kind == models.SurfacePrivate {
		delivered, seen := m.Delivered, m.Seen
		view.Delivered, view.Seen = &delivered, &seen
	}
	return view
}

func endSpan(span trace.Span, err error) {
	if err != nil && !isDenial(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// isDenial reports errors that are expected outcomes rather than failures.
func isDenial(err error) bool {
	return errors.Is(err, ErrNotAMember) ||
		errors.Is(err, ErrNotAParticipant) ||
		errors.Is(err, ErrSurfaceNotFound) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrInvalidRecipient)
}
