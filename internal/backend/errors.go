package backend

import "errors"

// ErrNotLoggedIn is returned when the googletasks backend has no stored token.
var ErrNotLoggedIn = errors.New("not logged in (run: taskboard login)")
