// Package identity implements the account and authentication core of the
// CampusPay campus e-wallet.
//
// Accounts:
//   - Users register with email, student id, and a password; accounts start
//     inactive and are activated by a signed email-verification token. Email
//     and student id are unique across accounts.
//   - Partial updates go through UserPatch, which enumerates the only two
//     fields the lifecycle is allowed to mutate (is_active, password_hash).
//
// Tokens:
//   - TokenService signs HS256 JWTs with a server-held secret. Session access
//     tokens carry only a subject; email-verification and password-reset
//     tokens additionally carry a purpose claim. A token is accepted only if
//     its signature verifies, it is unexpired, and its purpose matches the
//     purpose the consuming endpoint expects.
//
// Lifecycle:
//   - One handler per operation (RegisterUserHandler, VerifyEmailHandler,
//     InitializePasswordResetHandler, FinalizePasswordResetHandler) plus
//     Auther.Login for credential authentication. Handlers are stateless and
//     re-read the user store on every call. Email dispatch is fire-and-forget
//     through the Notifier interface; delivery failures are logged, never
//     surfaced to the client and never roll back committed mutations.
package identity
