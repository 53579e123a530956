package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// LoginPath is the path to the login page.
	LoginPath = "/login"

	// APIPrefix prefixes every route answering with JSON.
	APIPrefix = "/api/"

	// PageError renders a bare error message.
	PageError = "message/error"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg, db or deps is nil"
)
