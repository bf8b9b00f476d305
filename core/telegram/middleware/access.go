package middleware

import tele "gopkg.in/telebot.v4"

// SuperAdminChecker reports whether an actor holds super-admin privileges.
// The check must not leak any other authorization state.
type SuperAdminChecker interface {
	IsSuperAdmin(id int64) bool
}

// SuperAdminOptions defines how gated checks should behave.
type SuperAdminOptions struct {
	Checker  SuperAdminChecker
	OnReject tele.HandlerFunc
}

// WithSuperAdminCheck wraps a handler enforcing super-admin-only execution.
func WithSuperAdminCheck(opts SuperAdminOptions, h tele.HandlerFunc) tele.HandlerFunc {
	if opts.Checker == nil {
		return h
	}
	return func(c tele.Context) error {
		if c.Sender() == nil || !opts.Checker.IsSuperAdmin(c.Sender().ID) {
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return h(c)
	}
}

// SuperAdminOnlyMiddleware ensures that only super-admins can invoke downstream handlers.
func SuperAdminOnlyMiddleware(opts SuperAdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return WithSuperAdminCheck(opts, next)
	}
}
