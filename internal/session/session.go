// Package session configures the server-side session manager that backs
// login state and flash messages. Sessions are persisted in the application
// SQLite database so a restart does not log users out.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// New creates a session manager backed by the sessions table in db.
// In production the cookie uses the __Host- prefix, which requires
// Secure and Path=/; development keeps the default name so sessions
// work over plain HTTP on localhost.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	if !isDev {
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Secure = true
	}

	return sm
}
