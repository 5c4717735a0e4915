package identity

import (
	"errors"

	"github.com/campuspay/identity/middleware/jwtware"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// MsgResetRequested is returned for every forgot-password request,
	// whether or not the address is registered.
	MsgResetRequested = "If an account with that email exists, a password reset link has been sent."
	MsgEmailVerified  = "Email verified successfully! You can now log in."
	MsgPasswordReset  = "Password has been reset successfully. You can now log in with your new password."
	MsgRegistered     = "Registration successful! Please check your email to verify your account."
)

type AuthControllerRoutes struct {
	Register       string
	VerifyEmail    string
	Token          string
	ForgotPassword string
	ResetPassword  string
	Me             string
	AdminUsers     string
}

type AuthController struct {
	Logger   Logger
	Repo     RepositoryManager
	Auther   *Auther
	Routes   *AuthControllerRoutes
	Register *RegisterUserHandler
	Verify   *VerifyEmailHandler
	ResetIni *InitializePasswordResetHandler
	ResetFin *FinalizePasswordResetHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = normalizeLogger(logger)
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithLifecycleHandlers(register *RegisterUserHandler, verify *VerifyEmailHandler, resetIni *InitializePasswordResetHandler, resetFin *FinalizePasswordResetHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = register
		c.Verify = verify
		c.ResetIni = resetIni
		c.ResetFin = resetFin
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:       "/auth/register",
			VerifyEmail:    "/auth/verify-email",
			Token:          "/auth/token",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
			Me:             "/auth/me",
			AdminUsers:     "/admin/users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Register == nil || c.Verify == nil || c.ResetIni == nil || c.ResetFin == nil {
		panic("Missing lifecycle handlers in auth controller...")
	}

	return c
}

// RegisterRoutes mounts the public and protected endpoints on the app.
func (a *AuthController) RegisterRoutes(app *fiber.App) {
	app.Post(a.Routes.Register, a.RegisterPost)
	app.Get(a.Routes.VerifyEmail, a.VerifyEmailGet)
	app.Post(a.Routes.Token, a.TokenPost)
	app.Post(a.Routes.ForgotPassword, a.ForgotPasswordPost)
	app.Post(a.Routes.ResetPassword, a.ResetPasswordPost)

	protected := jwtware.New(jwtware.Config{
		Resolver: func(ctx *fiber.Ctx, token string) (any, error) {
			return a.Auther.CurrentUser(ctx.Context(), token)
		},
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return a.renderError(ctx, ErrUnauthenticated)
		},
	})

	app.Get(a.Routes.Me, protected, a.MeGet)
	app.Get(a.Routes.AdminUsers, protected, a.AdminUsersGet)
}

// RegisterRequest payload
type RegisterRequest struct {
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	Email           string `json:"email" form:"email"`
	Institution     string `json:"institution" form:"institution"`
	StudentID       string `json:"student_id" form:"student_id"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Institution, validation.Required),
		validation.Field(&r.StudentID, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(ValidateStringEquals(r.Password))),
	)
}

func (a *AuthController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	var resp *RegisterUserResponse
	err := a.Register.Execute(ctx.Context(), RegisterUserMessage{
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Email:           payload.Email,
		Institution:     payload.Institution,
		StudentID:       payload.StudentID,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		OnResponse:      func(r *RegisterUserResponse) { resp = r },
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": MsgRegistered,
		"user":    resp.User.Summary(),
	})
}

func (a *AuthController) VerifyEmailGet(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return a.renderError(ctx, goerrors.New("missing verification token", goerrors.CategoryBadInput))
	}

	err := a.Verify.Execute(ctx.Context(), VerifyEmailMessage{Token: token})
	if err != nil {
		return a.renderTokenFlowError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": MsgEmailVerified})
}

// TokenRequest payload
type TokenRequest struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) TokenPost(ctx *fiber.Ctx) error {
	payload := new(TokenRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	token, expires, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expires,
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPasswordPost(ctx *fiber.Ctx) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	err := a.ResetIni.Execute(ctx.Context(), InitializePasswordResetMessage{Email: payload.Email})
	if err != nil {
		// Internal failures still return the generic body so the endpoint
		// stays unusable as an account oracle.
		a.Logger.Error("forgot-password failed: %v", err)
	}

	return ctx.JSON(fiber.Map{"message": MsgResetRequested})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token           string `json:"token" form:"token"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(ValidateStringEquals(r.Password))),
	)
}

func (a *AuthController) ResetPasswordPost(ctx *fiber.Ctx) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	err := a.ResetFin.Execute(ctx.Context(), FinalizePasswordResetMessage{
		Token:           payload.Token,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return a.renderTokenFlowError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": MsgPasswordReset})
}

func (a *AuthController) MeGet(ctx *fiber.Ctx) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return a.renderError(ctx, err)
	}

	if err := RequireActive(user); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(user.Summary())
}

func (a *AuthController) AdminUsersGet(ctx *fiber.Ctx) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return a.renderError(ctx, err)
	}

	if err := RequireAdmin(user); err != nil {
		return a.renderError(ctx, err)
	}

	users, err := a.Repo.Users().List(ctx.Context())
	if err != nil {
		return a.renderError(ctx, err)
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}

	return ctx.JSON(out)
}

func (a *AuthController) sessionUser(ctx *fiber.Ctx) (*User, error) {
	user, ok := ctx.Locals(jwtware.DefaultContextKey).(*User)
	if !ok || user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

func (a *AuthController) renderValidation(ctx *fiber.Ctx, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"detail": err.Error(),
	})
}

func (a *AuthController) renderError(ctx *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unhandled error: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "internal server error",
		})
	}

	status := statusForCategory(richErr.Category)
	if status == fiber.StatusInternalServerError {
		a.Logger.Error("internal error: %v", err)
		return ctx.Status(status).JSON(fiber.Map{"detail": "internal server error"})
	}

	body := fiber.Map{"detail": richErr.Message}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return ctx.Status(status).JSON(body)
}

// renderTokenFlowError downgrades token failures on email driven flows to a
// plain 400. A bad link in an email is client input, not a failed session.
func (a *AuthController) renderTokenFlowError(ctx *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuth {
		body := fiber.Map{"detail": richErr.Message}
		if richErr.TextCode != "" {
			body["code"] = richErr.TextCode
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(body)
	}
	return a.renderError(ctx, err)
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fiber.StatusBadRequest
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
