package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UserControllerRoutes holds the route paths for the user API
type UserControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Logout   string
	Update   string
	Detail   string
}

// UserController exposes the account lifecycle over JSON HTTP
type UserController struct {
	Logger       Logger
	Repo         RepositoryManager
	Auther       Authenticator
	Routes       *UserControllerRoutes
	ErrorHandler func(c *fiber.Ctx, err error) error
}

// UserControllerOption configures a UserController
type UserControllerOption func(*UserController) *UserController

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRepo sets the repository manager
func WithControllerRepo(repo RepositoryManager) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Repo = repo
		return c
	}
}

// WithControllerAuther sets the authenticator
func WithControllerAuther(auther Authenticator) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Auther = auther
		return c
	}
}

// NewUserController creates a controller with default routes
func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger: defLogger{},
		Routes: &UserControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Refresh:  "/token/refresh",
			Logout:   "/logout",
			Update:   "/update",
			Detail:   "/detail/:id",
		},
	}
	c.ErrorHandler = c.renderError

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// RegisterUserRoutes mounts the user API on the given router. The update and
// detail routes sit behind the protected middleware; register, login,
// refresh, and logout are reachable without a session.
func RegisterUserRoutes(app fiber.Router, controller *UserController, protected fiber.Handler) {
	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Refresh, controller.RefreshPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Put(controller.Routes.Update, protected, controller.UpdatePut)
	app.Get(controller.Routes.Detail, protected, controller.DetailGet)
}

// RegisterPost creates a new account. Registration is open to
// unauthenticated callers only: a request carrying a valid access token is
// refused so logged in sessions cannot mint additional accounts.
func (a *UserController) RegisterPost(ctx *fiber.Ctx) error {
	if raw, err := extractBearerToken(ctx, DefaultAuthScheme); err == nil {
		if _, err := a.Auther.SessionFromToken(raw); err == nil {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "you are already authenticated",
			})
		}
	}

	payload := new(RegisterUserMessage)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}

	registerUser := NewRegisterUserHandler(a.Repo).WithLogger(a.Logger)
	user, err := registerUser.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user.PublicView(),
	})
}

// LoginRequest is the credential payload
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginPost verifies credentials and returns a token pair
func (a *UserController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Auther.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(pair)
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" form:"refresh"`
}

// RefreshPost exchanges a refresh token for a new access token
func (a *UserController) RefreshPost(ctx *fiber.Ctx) error {
	payload := new(RefreshRequest)

	if err := ctx.BodyParser(payload); err != nil || payload.Refresh == "" {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	access, err := a.Auther.Refresh(ctx.Context(), payload.Refresh)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{"access": access})
}

// LogoutRequest carries the refresh token to revoke
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// LogoutPost revokes the presented refresh token. Revoking twice is a no-op.
func (a *UserController) LogoutPost(ctx *fiber.Ctx) error {
	payload := new(LogoutRequest)

	if err := ctx.BodyParser(payload); err != nil || payload.RefreshToken == "" {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	if err := a.Auther.Logout(ctx.Context(), payload.RefreshToken); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusNoContent).Send(nil)
}

// UpdatePut applies a partial user+profile update to the authenticated user
func (a *UserController) UpdatePut(ctx *fiber.Ctx) error {
	claims, ok := ClaimsFromFiberContext(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	payload := new(UpdateUserMessage)
	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("update user parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}
	payload.UserID = userID

	updateUser := NewUpdateUserHandler(a.Repo).WithLogger(a.Logger)
	user, err := updateUser.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DetailGet returns the public projection of the user with the given id.
// Any authenticated caller may look up any id; there is no ownership check.
func (a *UserController) DetailGet(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrIdentityNotFound)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return a.ErrorHandler(ctx, ErrIdentityNotFound)
		}
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// renderError converts package errors into structured JSON responses. All
// errors are handled here at the operation boundary; nothing propagates as
// an unhandled fault.
func (a *UserController) renderError(ctx *fiber.Ctx, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": FormatValidationErrorToMap(verrs),
		})
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		if err == ErrJWTMissingOrMalformed {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
	}

	a.Logger.Error("request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
	)

	status := fiber.StatusInternalServerError
	switch richErr.Category {
	case errors.CategoryAuth:
		status = fiber.StatusUnauthorized
	case errors.CategoryValidation, errors.CategoryBadInput:
		status = fiber.StatusBadRequest
	case errors.CategoryNotFound:
		status = fiber.StatusNotFound
	case errors.CategoryConflict:
		status = fiber.StatusConflict
	}

	body := fiber.Map{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return ctx.Status(status).JSON(body)
}
