package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Institution     string `json:"institution"`
	StudentID       string `json:"student_id"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	OnResponse      func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User *User
	// VerificationToken is the purpose token embedded in the email link.
	VerificationToken string
}

type RegisterUserHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	notifier Notifier
	links    LinkBuilder
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService, notifier Notifier, links LinkBuilder) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: normalizeNotifier(notifier),
		links:    links,
		logger:   defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	email := strings.TrimSpace(strings.ToLower(event.Email))
	studentID := strings.TrimSpace(event.StudentID)

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmail(ctx, email); err == nil {
			return ErrDuplicateEmail
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		if _, err := h.repo.Users().GetByStudentID(ctx, studentID); err == nil {
			return ErrDuplicateStudentID
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check student ID uniqueness")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = email
		user.FirstName = strings.TrimSpace(event.FirstName)
		user.LastName = strings.TrimSpace(event.LastName)
		user.Institution = strings.TrimSpace(event.Institution)
		user.StudentID = studentID
		user.IsActive = false
		user.RegisteredAt = time.Now().UTC()
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, _, err := h.tokens.IssuePurposeToken(user.Email, PurposeEmailVerification, 0)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	go h.deliverVerificationEmail(user.Email, user.FullName(), token)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:              user,
			VerificationToken: token,
		})
	}

	return nil
}

// deliverVerificationEmail runs off the request path so a slow or failing
// email provider never blocks registration.
func (h *RegisterUserHandler) deliverVerificationEmail(email, name, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	link := h.links.VerificationLink(token)
	if err := h.notifier.SendVerificationEmail(ctx, email, name, link); err != nil {
		h.logger.Error("failed to send verification email to %s: %v", email, err)
	}
}
