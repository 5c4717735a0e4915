package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes give clients a stable, message-independent way to branch on
// faults.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAccountNotActive   = "ACCOUNT_NOT_ACTIVE"
	TextCodeAlreadyVerified    = "ALREADY_VERIFIED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenPurpose       = "TOKEN_PURPOSE_MISMATCH"
	TextCodeDuplicateEmail     = "EMAIL_TAKEN"
	TextCodeDuplicateStudentID = "STUDENT_ID_TAKEN"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodePasswordMismatch   = "PASSWORD_MISMATCH"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeAdminRequired      = "ADMIN_REQUIRED"
)

// ErrInvalidCredentials is returned for an unknown email OR a wrong password.
// The message is deliberately identical for both so clients cannot enumerate
// accounts through error text.
var ErrInvalidCredentials = goerrors.New("incorrect email or password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrMismatchedHashAndPassword is the internal compare failure from the
// credential hasher. Login flows translate it into ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrAccountNotActive rejects logins for accounts that never completed email
// verification.
var ErrAccountNotActive = goerrors.New("account not active, please verify your email", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeAccountNotActive)

// ErrAlreadyVerified guards against replaying a verification token on an
// already active account.
var ErrAlreadyVerified = goerrors.New("email already verified", goerrors.CategoryConflict).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeAlreadyVerified)

// ErrTokenExpired covers tokens whose expiry is in the past.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers every other token verification failure: bad
// signature, wrong structure, missing subject. Callers never learn which.
var ErrTokenMalformed = goerrors.New("token is malformed or invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenPurposeMismatch rejects a structurally valid token presented to an
// endpoint expecting a different purpose. This is the only barrier keeping a
// password-reset token from being replayed as a session token.
var ErrTokenPurposeMismatch = goerrors.New("token purpose does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenPurpose)

// ErrDuplicateEmail rejects registration with an email that is already taken.
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateEmail)

// ErrDuplicateStudentID rejects registration with a student id that is
// already taken.
var ErrDuplicateStudentID = goerrors.New("student id already registered", goerrors.CategoryConflict).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateStudentID)

// ErrUserNotFound is returned when a token subject has no matching account.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrPasswordMismatch rejects a password/confirmation pair that differs.
var ErrPasswordMismatch = goerrors.New("passwords do not match", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodePasswordMismatch)

// ErrNoEmptyString rejects empty passwords before they reach the hasher.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// ErrUnauthenticated is the single outcome for any failure while resolving
// the acting user from a bearer token.
var ErrUnauthenticated = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthenticated)

// ErrAdminRequired gates admin-only surfaces.
var ErrAdminRequired = goerrors.New("not enough permissions, admin access required", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeForbidden).
	WithTextCode(TextCodeAdminRequired)
