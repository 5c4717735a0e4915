package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailResponse struct {
	User *User
}

type VerifyEmailHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, tokens TokenService) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email, err := h.tokens.VerifyPurposeToken(event.Token, PurposeEmailVerification)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
	}

	if user.IsActive {
		return ErrAlreadyVerified
	}

	user, err = h.repo.Users().Patch(ctx, user.ID, Activate())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate user")
	}

	h.logger.Info("account %s verified", user.ID)

	if event.OnResponse != nil {
		event.OnResponse(&VerifyEmailResponse{User: user})
	}

	return nil
}
