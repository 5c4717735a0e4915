package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	// Delivered reports whether an email was actually dispatched. Callers
	// must not surface this to clients; the HTTP layer returns the same
	// body either way so the endpoint cannot be used to enumerate accounts.
	Delivered bool
	// ResetToken is populated only when Delivered is true.
	ResetToken string
}

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	notifier Notifier
	links    LinkBuilder
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens TokenService, notifier Notifier, links LinkBuilder) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: normalizeNotifier(notifier),
		links:    links,
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := strings.TrimSpace(strings.ToLower(event.Email))

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// Swallow the miss. The response is identical either way.
			h.logger.Info("password reset requested for unknown email")
			if event.OnResponse != nil {
				event.OnResponse(&InitializePasswordResetResponse{Delivered: false})
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, _, err := h.tokens.IssuePurposeToken(user.Email, PurposePasswordReset, 0)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	go h.deliverResetEmail(user.Email, user.FullName(), token)

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Delivered:  true,
			ResetToken: token,
		})
	}

	return nil
}

func (h *InitializePasswordResetHandler) deliverResetEmail(email, name, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	link := h.links.PasswordResetLink(token)
	if err := h.notifier.SendPasswordResetEmail(ctx, email, name, link); err != nil {
		h.logger.Error("failed to send password reset email to %s: %v", email, err)
	}
}
